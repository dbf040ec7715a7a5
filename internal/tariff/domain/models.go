package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
)

type UtilityType struct {
	ID            snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"UtilityTypeID"`
	TypeName      string       `gorm:"size:50;not null;uniqueIndex" json:"TypeName"`
	UnitOfMeasure string       `gorm:"size:20;not null" json:"UnitOfMeasure"`
	CreatedAt     time.Time    `gorm:"not null" json:"CreatedAt"`
}

type Tariff struct {
	ID            snowflake.ID                `gorm:"primaryKey;autoIncrement:false" json:"TariffID"`
	UtilityTypeID snowflake.ID                `gorm:"not null;uniqueIndex:idx_tariffs_lookup" json:"UtilityTypeID"`
	CustomerType  customerdomain.CustomerType `gorm:"size:20;not null;uniqueIndex:idx_tariffs_lookup" json:"CustomerType"`
	RatePerUnit   decimal.Decimal             `gorm:"type:numeric(12,4);not null" json:"RatePerUnit"`
	FixedCharge   decimal.Decimal             `gorm:"type:numeric(12,2);not null;default:0" json:"FixedCharge"`
	CreatedAt     time.Time                   `gorm:"not null" json:"CreatedAt"`
	UpdatedAt     time.Time                   `gorm:"not null" json:"UpdatedAt"`
}

type TariffView struct {
	Tariff
	TypeName      string `json:"TypeName"`
	UnitOfMeasure string `json:"UnitOfMeasure"`
}

// Rate is the price applied to one reading. Fallback marks the zero rate used
// when no tariff matched.
type Rate struct {
	TariffID    snowflake.ID    `json:"TariffID,omitempty"`
	RatePerUnit decimal.Decimal `json:"RatePerUnit"`
	FixedCharge decimal.Decimal `json:"FixedCharge"`
	Fallback    bool            `json:"Fallback,omitempty"`
}
