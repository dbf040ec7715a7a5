package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	"github.com/smallbiznis/utilibill/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var ErrInvalidPeriod = errors.New("invalid_period")

// Document is a rendered file ready to be streamed.
type Document struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Customers customerdomain.Service
	Bills     billingdomain.Service
	Payments  paymentdomain.Service
	PDF       pdf.Provider
}

// Assembler gathers bills and payments into printable documents.
type Assembler struct {
	log       *zap.Logger
	clock     clock.Clock
	customers customerdomain.Service
	bills     billingdomain.Service
	payments  paymentdomain.Service
	pdf       pdf.Provider
}

func NewAssembler(p Params) *Assembler {
	return &Assembler{
		log:       p.Log.Named("report.assembler"),
		clock:     p.Clock,
		customers: p.Customers,
		bills:     p.Bills,
		payments:  p.Payments,
		pdf:       p.PDF,
	}
}

// CustomerStatement renders every bill of the customer dated in the given month.
func (a *Assembler) CustomerStatement(ctx context.Context, customerID string, year, month int) (Document, error) {
	if year == 0 || month == 0 {
		return Document{}, ErrInvalidPeriod
	}
	customer, err := a.customers.GetByID(ctx, customerID)
	if err != nil {
		return Document{}, err
	}
	bills, err := a.bills.List(ctx, billingdomain.ListBillRequest{
		CustomerID: customerID,
		Year:       year,
		Month:      month,
	})
	if err != nil {
		return Document{}, err
	}

	period := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	data := BuildStatement(customer, bills, period, a.clock.Now())
	body, err := a.pdf.GenerateStatement(ctx, data)
	if err != nil {
		return Document{}, fmt.Errorf("render statement: %w", err)
	}

	a.log.Info("statement generated",
		zap.String("customer_id", customer.ID.String()),
		zap.String("period", period.Format("2006-01")),
		zap.Int("bills", len(bills)),
	)
	return Document{
		Filename:    StatementFilename(customer.Name, period),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func (a *Assembler) PaymentReceipt(ctx context.Context, paymentID string) (Document, error) {
	payment, err := a.payments.GetByID(ctx, paymentID)
	if err != nil {
		return Document{}, err
	}
	body, err := a.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		ReceiptNumber: payment.ReceiptNumber,
		PaymentDate:   time.Time(payment.PaymentDate).Format(dateLayout),
		PaymentMethod: string(payment.PaymentMethod),
		AmountPaid:    payment.AmountPaid.StringFixed(2),
		CustomerName:  payment.CustomerName,
		SerialNumber:  payment.SerialNumber,
		BillID:        payment.BillID.String(),
		BillTotal:     payment.TotalAmount.StringFixed(2),
		ProcessedBy:   payment.ProcessedByName,
	})
	if err != nil {
		return Document{}, fmt.Errorf("render receipt: %w", err)
	}
	return Document{
		Filename:    slug.Make(payment.ReceiptNumber) + ".pdf",
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

// BuildStatement flattens bill views into statement lines and totals.
func BuildStatement(customer customerdomain.Customer, bills []billingdomain.BillView, period, now time.Time) pdf.StatementData {
	billed := decimal.Zero
	paid := decimal.Zero
	lines := make([]pdf.StatementLine, 0, len(bills))
	for _, b := range bills {
		billed = billed.Add(b.TotalAmount)
		paid = paid.Add(b.AmountPaid)
		lines = append(lines, pdf.StatementLine{
			BillDate:     time.Time(b.BillDate).Format(dateLayout),
			SerialNumber: b.SerialNumber,
			UtilityType:  b.TypeName,
			Units:        b.UnitsConsumed.StringFixed(2) + " " + b.UnitOfMeasure,
			Amount:       b.TotalAmount.StringFixed(2),
			DueDate:      time.Time(b.DueDate).Format(dateLayout),
			Status:       string(b.Status),
			Paid:         b.AmountPaid.StringFixed(2),
		})
	}
	balance := billed.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	return pdf.StatementData{
		Title:        "Customer statement",
		Period:       period.Format("January 2006"),
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		CustomerName: customer.Name,
		CustomerType: string(customer.CustomerType),
		Address:      customer.Address,
		Phone:        customer.Phone,
		Email:        customer.Email,
		Lines:        lines,
		TotalBilled:  billed.StringFixed(2),
		TotalPaid:    paid.StringFixed(2),
		BalanceDue:   balance.StringFixed(2),
	}
}

func StatementFilename(customerName string, period time.Time) string {
	return slug.Make(fmt.Sprintf("%s statement %s", customerName, period.Format("2006-01"))) + ".pdf"
}
