package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type CustomerType string

const (
	CustomerTypeHousehold  CustomerType = "Household"
	CustomerTypeBusiness   CustomerType = "Business"
	CustomerTypeGovernment CustomerType = "Government"
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeHousehold, CustomerTypeBusiness, CustomerTypeGovernment:
		return true
	default:
		return false
	}
}

type Customer struct {
	ID           snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"CustomerID"`
	Name         string            `gorm:"size:255;not null;index" json:"Name"`
	Address      string            `gorm:"size:500;not null;default:''" json:"Address"`
	Phone        string            `gorm:"size:50;not null;default:''" json:"Phone"`
	Email        string            `gorm:"size:255;not null;default:''" json:"Email,omitempty"`
	CustomerType CustomerType      `gorm:"size:20;not null" json:"CustomerType"`
	Metadata     datatypes.JSONMap `json:"Metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null" json:"CreatedAt"`
	UpdatedAt    time.Time         `gorm:"not null" json:"UpdatedAt"`
}
