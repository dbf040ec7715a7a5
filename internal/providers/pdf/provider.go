package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

var Module = fx.Module("pdf.provider",
	fx.Provide(New),
)

type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

// Amounts and dates arrive preformatted so the renderer stays free of
// domain types.

type StatementData struct {
	Title         string
	Period        string
	GeneratedAt   string
	CustomerName  string
	CustomerType  string
	Address       string
	Phone         string
	Email         string
	Lines         []StatementLine
	TotalBilled   string
	TotalPaid     string
	BalanceDue    string
}

type StatementLine struct {
	BillDate     string
	SerialNumber string
	UtilityType  string
	Units        string
	Amount       string
	DueDate      string
	Status       string
	Paid         string
}

type ReceiptData struct {
	ReceiptNumber string
	PaymentDate   string
	PaymentMethod string
	AmountPaid    string
	CustomerName  string
	SerialNumber  string
	BillID        string
	BillTotal     string
	ProcessedBy   string
}
