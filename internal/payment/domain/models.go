package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Method string

const (
	MethodCash         Method = "Cash"
	MethodCard         Method = "Card"
	MethodOnline       Method = "Online"
	MethodBankTransfer Method = "Bank Transfer"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodOnline, MethodBankTransfer:
		return true
	default:
		return false
	}
}

type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"PaymentID"`
	BillID        snowflake.ID    `gorm:"not null;index" json:"BillID"`
	PaymentDate   datatypes.Date  `gorm:"not null;index" json:"PaymentDate"`
	AmountPaid    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"AmountPaid"`
	PaymentMethod Method          `gorm:"size:20;not null" json:"PaymentMethod"`
	ProcessedBy   snowflake.ID    `gorm:"not null" json:"ProcessedBy"`
	ReceiptNumber string          `gorm:"size:40;not null;uniqueIndex" json:"ReceiptNumber"`
	CreatedAt     time.Time       `gorm:"not null" json:"CreatedAt"`
}

type PaymentView struct {
	Payment
	TotalAmount     decimal.Decimal `json:"TotalAmount"`
	CustomerName    string          `json:"CustomerName"`
	SerialNumber    string          `json:"SerialNumber"`
	ProcessedByName string          `json:"ProcessedByName"`
}

type MethodStat struct {
	PaymentMethod Method          `json:"PaymentMethod"`
	Count         int64           `json:"Count"`
	TotalAmount   decimal.Decimal `json:"TotalAmount"`
}

type DailyStat struct {
	Date        string          `json:"Date"`
	Count       int64           `json:"Count"`
	TotalAmount decimal.Decimal `json:"TotalAmount"`
}

type Stats struct {
	From     string       `json:"From"`
	To       string       `json:"To"`
	ByMethod []MethodStat `json:"ByMethod"`
	ByDay    []DailyStat  `json:"ByDay"`
}
