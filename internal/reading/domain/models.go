package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Reading is append-only; corrections delete and re-record.
type Reading struct {
	ID              snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"ReadingID"`
	MeterID         snowflake.ID    `gorm:"not null;index:idx_readings_meter_date" json:"MeterID"`
	ReadingDate     datatypes.Date  `gorm:"not null;index:idx_readings_meter_date" json:"ReadingDate"`
	PreviousReading decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"PreviousReading"`
	CurrentReading  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"CurrentReading"`
	ReadingTakenBy  snowflake.ID    `gorm:"not null" json:"ReadingTakenBy"`
	CreatedAt       time.Time       `gorm:"not null" json:"CreatedAt"`
}

// Units is the consumption the reading represents.
func (r Reading) Units() decimal.Decimal {
	return r.CurrentReading.Sub(r.PreviousReading)
}

type ReadingView struct {
	Reading
	SerialNumber  string `json:"SerialNumber"`
	CustomerName  string `json:"CustomerName"`
	TypeName      string `json:"TypeName"`
	UnitOfMeasure string `json:"UnitOfMeasure"`
	TakenByName   string `json:"TakenByName"`
}
