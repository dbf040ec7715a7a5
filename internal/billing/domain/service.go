package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type RecordReadingRequest struct {
	MeterID         string
	ReadingDate     time.Time
	PreviousReading decimal.Decimal
	CurrentReading  decimal.Decimal
	ReadingTakenBy  string
}

// Engine turns a meter reading into a bill.
type Engine interface {
	RecordReadingAndBill(context.Context, RecordReadingRequest) (RecordResult, error)
}

// Sweeper moves past-due Unpaid bills to Overdue.
type Sweeper interface {
	MarkOverdueBills(ctx context.Context, trigger string) (int64, error)
}

type ListBillRequest struct {
	Status     string
	CustomerID string
	Year       int
	Month      int
	Limit      int
}

type Service interface {
	List(context.Context, ListBillRequest) ([]BillView, error)
	GetByID(ctx context.Context, id string) (BillView, error)
	ListUnpaid(ctx context.Context) ([]BillView, error)
	Summary(ctx context.Context) ([]StatusSummary, error)
	UpdateStatus(ctx context.Context, id string, status string) (Bill, error)
	Delete(ctx context.Context, id string) error
}

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

const CurrentBelowPreviousMessage = "Current reading must be greater than or equal to previous reading"

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidMeterID        = errors.New("invalid_meter_id")
	ErrInvalidCustomerID     = errors.New("invalid_customer_id")
	ErrInvalidReadingDate    = errors.New("invalid_reading_date")
	ErrFutureReadingDate     = errors.New("future_reading_date")
	ErrNegativeReading       = errors.New("negative_reading")
	ErrCurrentBelowPrevious  = errors.New("current_below_previous")
	ErrReadingPrecision      = errors.New("reading_precision")
	ErrInvalidReadingTakenBy = errors.New("invalid_reading_taken_by")
	ErrMeterNotActive        = errors.New("meter_not_active")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidPeriod         = errors.New("invalid_period")
	ErrInvalidTransition     = errors.New("invalid_status_transition")
	ErrNotFound              = errors.New("not_found")
	ErrBillHasPayments       = errors.New("bill_has_payments")
	ErrStatusChanged         = errors.New("bill_status_changed")
)
