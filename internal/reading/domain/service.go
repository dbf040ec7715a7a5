package domain

import (
	"context"
	"errors"
)

type ListReadingRequest struct {
	MeterID string
	Limit   int
}

type Service interface {
	List(context.Context, ListReadingRequest) ([]ReadingView, error)
	GetByID(ctx context.Context, id string) (Reading, error)
	Last(ctx context.Context, meterID string) (Reading, error)
	// Delete removes a reading together with its bill, unless the bill has payments.
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidMeterID = errors.New("invalid_meter_id")
	ErrNotFound       = errors.New("not_found")
	ErrBillHasPayment = errors.New("reading_bill_has_payments")
)
