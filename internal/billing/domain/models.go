package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusUnpaid  Status = "Unpaid"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusOverdue:
		return true
	default:
		return false
	}
}

// Payable reports whether a payment may settle a bill in this status.
func (s Status) Payable() bool {
	return s == StatusUnpaid || s == StatusOverdue
}

var transitions = map[Status][]Status{
	StatusUnpaid:  {StatusOverdue, StatusPaid},
	StatusOverdue: {StatusPaid},
	StatusPaid:    nil,
}

// CanTransition is the bill state machine. Paid is terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Bill is computed once from its reading and never recomputed.
type Bill struct {
	ID            snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"BillID"`
	ReadingID     snowflake.ID    `gorm:"not null;uniqueIndex" json:"ReadingID"`
	BillDate      datatypes.Date  `gorm:"not null;index" json:"BillDate"`
	UnitsConsumed decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"UnitsConsumed"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"TotalAmount"`
	DueDate       datatypes.Date  `gorm:"not null;index" json:"DueDate"`
	Status        Status          `gorm:"size:20;not null;index" json:"Status"`
	CreatedAt     time.Time       `gorm:"not null" json:"CreatedAt"`
	UpdatedAt     time.Time       `gorm:"not null" json:"UpdatedAt"`
}

// BillView joins a bill with its reading, meter, customer and payments.
type BillView struct {
	Bill
	MeterID         snowflake.ID    `json:"MeterID"`
	ReadingDate     datatypes.Date  `json:"ReadingDate"`
	PreviousReading decimal.Decimal `json:"PreviousReading"`
	CurrentReading  decimal.Decimal `json:"CurrentReading"`
	SerialNumber    string          `json:"SerialNumber"`
	CustomerID      snowflake.ID    `json:"CustomerID"`
	CustomerName    string          `json:"CustomerName"`
	TypeName        string          `json:"TypeName"`
	UnitOfMeasure   string          `json:"UnitOfMeasure"`
	AmountPaid      decimal.Decimal `json:"AmountPaid"`
	PaymentCount    int64           `json:"PaymentCount"`
	DaysOverdue     int             `gorm:"-" json:"DaysOverdue"`
}

type StatusSummary struct {
	Status      Status          `json:"Status"`
	Count       int64           `json:"Count"`
	TotalAmount decimal.Decimal `json:"TotalAmount"`
}

// RecordResult is what recording a reading produces.
type RecordResult struct {
	Reading readingdomain.Reading `json:"Reading"`
	Bill    Bill                  `json:"Bill"`
	Rate    tariffdomain.Rate     `json:"Rate"`
}
