package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusSuspended Status = "Suspended"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

type Meter struct {
	ID               snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"MeterID"`
	SerialNumber     string         `gorm:"size:100;not null;uniqueIndex" json:"SerialNumber"`
	CustomerID       snowflake.ID   `gorm:"not null;index" json:"CustomerID"`
	UtilityTypeID    snowflake.ID   `gorm:"not null;index" json:"UtilityTypeID"`
	InstallationDate datatypes.Date `gorm:"not null" json:"InstallationDate"`
	Status           Status         `gorm:"size:20;not null;index" json:"Status"`
	CreatedAt        time.Time      `gorm:"not null" json:"CreatedAt"`
	UpdatedAt        time.Time      `gorm:"not null" json:"UpdatedAt"`
}

// MeterView is a meter joined with its owner and utility type for listings.
type MeterView struct {
	Meter
	CustomerName  string `json:"CustomerName"`
	TypeName      string `json:"TypeName"`
	UnitOfMeasure string `json:"UnitOfMeasure"`
}

// BillingProfile carries the attributes tariff resolution and billing depend on.
type BillingProfile struct {
	MeterID       snowflake.ID
	SerialNumber  string
	Status        Status
	CustomerID    snowflake.ID
	CustomerName  string
	CustomerType  customerdomain.CustomerType
	UtilityTypeID snowflake.ID
	TypeName      string
}
