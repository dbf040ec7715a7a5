package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleManager      Role = "Manager"
	RoleFieldOfficer Role = "FieldOfficer"
	RoleCashier      Role = "Cashier"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleFieldOfficer, RoleCashier}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"UserID"`
	Username     string       `gorm:"size:50;not null;uniqueIndex" json:"Username"`
	PasswordHash string       `gorm:"size:255;not null" json:"-"`
	Role         Role         `gorm:"size:20;not null;index" json:"Role"`
	CreatedAt    time.Time    `gorm:"not null" json:"CreatedAt"`
	UpdatedAt    time.Time    `gorm:"not null" json:"UpdatedAt"`
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID    snowflake.ID
	Username  string
	Role      Role
	ExpiresAt time.Time
}
