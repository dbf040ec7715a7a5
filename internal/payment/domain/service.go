package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type PayBillRequest struct {
	BillID        string
	AmountPaid    decimal.Decimal
	PaymentMethod string
	ProcessedBy   string
}

// Processor settles bills.
type Processor interface {
	PayBill(context.Context, PayBillRequest) (Payment, error)
}

type ListPaymentRequest struct {
	BillID string
	Limit  int
}

type Service interface {
	List(context.Context, ListPaymentRequest) ([]PaymentView, error)
	GetByID(ctx context.Context, id string) (PaymentView, error)
	Stats(ctx context.Context) (Stats, error)
	// Delete removes the payment record only; the bill keeps its status.
	Delete(ctx context.Context, id string) error
}

const StatsWindowDays = 30

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidBillID      = errors.New("invalid_bill_id")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidMethod      = errors.New("invalid_payment_method")
	ErrInvalidProcessedBy = errors.New("invalid_processed_by")
	ErrAmountMismatch     = errors.New("amount_mismatch")
	ErrBillNotFound       = errors.New("bill_not_found")
	ErrBillAlreadyPaid    = errors.New("bill_already_paid")
	ErrNotFound           = errors.New("not_found")
)
