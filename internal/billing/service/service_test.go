package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	"github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/billing/service"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestBillService_ListAndSummary(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	svc := f.BillService()
	ctx := context.Background()

	march := f.Bill(t, meter, "100", "150")
	f.Clock.Set(time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC))
	april := f.Bill(t, meter, "150", "160")

	views, err := svc.List(ctx, domain.ListBillRequest{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, march.ID, views[0].ID)
	assert.Equal(t, "M1", views[0].SerialNumber)
	assert.Equal(t, "Electricity", views[0].TypeName)
	assert.Equal(t, "Jane Household", views[0].CustomerName)

	views, err = svc.List(ctx, domain.ListBillRequest{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, april.ID, views[0].ID)

	_, err = svc.List(ctx, domain.ListBillRequest{Year: 2024, Month: 13})
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)
	_, err = svc.List(ctx, domain.ListBillRequest{Status: "Pending"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, domain.StatusUnpaid, summary[0].Status)
	assert.Equal(t, int64(2), summary[0].Count)
	assert.Equal(t, "1400.00", summary[0].TotalAmount.StringFixed(2))
}

func TestBillService_UnpaidCarriesDaysOverdue(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	svc := f.BillService()
	ctx := context.Background()

	bill := f.Bill(t, meter, "100", "150")
	f.Clock.Advance(35 * 24 * time.Hour)
	_, err := f.Sweeper().MarkOverdueBills(ctx, domain.TriggerManual)
	require.NoError(t, err)

	views, err := svc.ListUnpaid(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bill.ID, views[0].ID)
	assert.Equal(t, domain.StatusOverdue, views[0].Status)
	assert.Equal(t, 5, views[0].DaysOverdue)
}

func TestBillService_UpdateStatus(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	svc := f.BillService()
	ctx := context.Background()

	bill := f.Bill(t, meter, "100", "150")

	updated, err := svc.UpdateStatus(ctx, bill.ID.String(), "Overdue")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverdue, updated.Status)

	_, err = svc.UpdateStatus(ctx, bill.ID.String(), "Unpaid")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, bill.ID.String(), "Paid")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, bill.ID.String(), "Overdue")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, bill.ID.String(), "Void")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, f.GenID.Generate().String(), "Paid")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBillService_DeleteRefusesPaidBills(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	svc := f.BillService()
	ctx := context.Background()

	free := f.Bill(t, meter, "100", "150")
	paid := f.Bill(t, meter, "150", "170")
	require.NoError(t, f.DB.Create(&paymentdomain.Payment{
		ID:            f.GenID.Generate(),
		BillID:        paid.ID,
		PaymentDate:   datatypes.Date(billingtest.Epoch),
		AmountPaid:    decimal.RequireFromString("500"),
		PaymentMethod: paymentdomain.MethodCash,
		ProcessedBy:   f.Officer.ID,
		ReceiptNumber: "RCPT-TEST",
		CreatedAt:     billingtest.Epoch,
	}).Error)

	require.ErrorIs(t, svc.Delete(ctx, paid.ID.String()), domain.ErrBillHasPayments)
	require.NoError(t, svc.Delete(ctx, free.ID.String()))

	_, err := svc.GetByID(ctx, free.ID.String())
	require.ErrorIs(t, err, domain.ErrNotFound)

	view, err := svc.GetByID(ctx, paid.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.PaymentCount)
	assert.Equal(t, "500.00", view.AmountPaid.StringFixed(2))
}

func TestDaysOverdue(t *testing.T) {
	today := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	due := func(days int, status domain.Status) domain.Bill {
		return domain.Bill{DueDate: datatypes.Date(today.AddDate(0, 0, days)), Status: status}
	}

	assert.Equal(t, 0, service.DaysOverdue(due(0, domain.StatusUnpaid), today))
	assert.Equal(t, 0, service.DaysOverdue(due(3, domain.StatusUnpaid), today))
	assert.Equal(t, 4, service.DaysOverdue(due(-4, domain.StatusOverdue), today))
	assert.Equal(t, 0, service.DaysOverdue(due(-4, domain.StatusPaid), today))
}

func TestMonthRange(t *testing.T) {
	from, to, err := service.MonthRange(2024, 12)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), to)

	_, _, err = service.MonthRange(2024, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
