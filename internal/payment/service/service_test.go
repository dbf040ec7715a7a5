package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	"github.com/smallbiznis/utilibill/internal/payment/domain"
	"github.com/smallbiznis/utilibill/internal/payment/repository"
	"github.com/smallbiznis/utilibill/internal/payment/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newPaymentService(f *billingtest.Fixture) *service.Service {
	return service.NewService(service.Params{
		DB:     f.DB,
		Log:    f.Log,
		GenID:  f.GenID,
		Clock:  f.Clock,
		Policy: f.Policy,
		Repo:   repository.Provide(),
		Bills:  f.Bills,
	})
}

func payRequest(f *billingtest.Fixture, bill billingdomain.Bill, amount, method string) domain.PayBillRequest {
	return domain.PayBillRequest{
		BillID:        bill.ID.String(),
		AmountPaid:    decimal.RequireFromString(amount),
		PaymentMethod: method,
		ProcessedBy:   f.Officer.ID.String(),
	}
}

func countPayments(t *testing.T, f *billingtest.Fixture, bill billingdomain.Bill) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.DB.Model(&domain.Payment{}).Where("bill_id = ?", bill.ID).Count(&count).Error)
	return count
}

func TestPayBill_SettlesBill(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)
	ctx := context.Background()

	payment, err := svc.PayBill(ctx, payRequest(f, bill, "1100.00", "Cash"))
	require.NoError(t, err)
	assert.Equal(t, bill.ID, payment.BillID)
	assert.Equal(t, domain.MethodCash, payment.PaymentMethod)
	assert.Equal(t, "1100.00", payment.AmountPaid.StringFixed(2))
	assert.True(t, strings.HasPrefix(payment.ReceiptNumber, "RCPT-"))
	assert.Equal(t, clock.DateOf(billingtest.Epoch), time.Time(payment.PaymentDate))

	assert.Equal(t, billingdomain.StatusPaid, f.ReloadBill(t, bill.ID).Status)
	assert.Equal(t, int64(1), countPayments(t, f, bill))

	view, err := svc.GetByID(ctx, payment.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1100.00", view.AmountPaid.StringFixed(2))
	assert.Equal(t, "1100.00", view.TotalAmount.StringFixed(2))
	assert.Equal(t, "Jane Household", view.CustomerName)
	assert.Equal(t, "M1", view.SerialNumber)
	assert.Equal(t, "officer", view.ProcessedByName)
}

func TestPayBill_SettlesOverdueBill(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	ctx := context.Background()

	f.Clock.Advance(40 * 24 * time.Hour)
	count, err := f.Sweeper().MarkOverdueBills(ctx, billingdomain.TriggerManual)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	_, err = newPaymentService(f).PayBill(ctx, payRequest(f, bill, "1100", "Bank Transfer"))
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusPaid, f.ReloadBill(t, bill.ID).Status)

	// paid bills stay paid
	count, err = f.Sweeper().MarkOverdueBills(ctx, billingdomain.TriggerManual)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPayBill_AlreadyPaidConflicts(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)
	ctx := context.Background()

	_, err := svc.PayBill(ctx, payRequest(f, bill, "1100", "Card"))
	require.NoError(t, err)

	_, err = svc.PayBill(ctx, payRequest(f, bill, "1100", "Card"))
	require.ErrorIs(t, err, domain.ErrBillAlreadyPaid)
	assert.Equal(t, int64(1), countPayments(t, f, bill))
}

func TestPayBill_ConcurrentPaymentsSettleOnce(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PayBill(context.Background(), payRequest(f, bill, "1100", "Online"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrBillAlreadyPaid):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, int64(1), countPayments(t, f, bill))
}

func TestPayBill_Validation(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.PayBillRequest
		want error
	}{
		{"bad bill id", domain.PayBillRequest{BillID: "x", AmountPaid: decimal.NewFromInt(1), PaymentMethod: "Cash", ProcessedBy: f.Officer.ID.String()}, domain.ErrInvalidBillID},
		{"zero amount", payRequest(f, bill, "0", "Cash"), domain.ErrInvalidAmount},
		{"negative amount", payRequest(f, bill, "-5", "Cash"), domain.ErrInvalidAmount},
		{"sub-cent amount", payRequest(f, bill, "0.004", "Cash"), domain.ErrInvalidAmount},
		{"fractional cents", payRequest(f, bill, "1100.005", "Cash"), domain.ErrInvalidAmount},
		{"unknown method", payRequest(f, bill, "10", "Cheque"), domain.ErrInvalidMethod},
		{"missing cashier", domain.PayBillRequest{BillID: bill.ID.String(), AmountPaid: decimal.NewFromInt(1), PaymentMethod: "Cash"}, domain.ErrInvalidProcessedBy},
		{"unknown bill", domain.PayBillRequest{BillID: f.GenID.Generate().String(), AmountPaid: decimal.NewFromInt(1), PaymentMethod: "Cash", ProcessedBy: f.Officer.ID.String()}, domain.ErrBillNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PayBill(ctx, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	assert.Zero(t, countPayments(t, f, bill))
	assert.Equal(t, billingdomain.StatusUnpaid, f.ReloadBill(t, bill.ID).Status)
}

func TestPayBill_ExactAmountPolicy(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)
	ctx := context.Background()

	f.SetPolicy(t, func(p *config.BillingPolicy) { p.PaymentAmountPolicy = config.PaymentAmountExact })

	_, err := svc.PayBill(ctx, payRequest(f, bill, "1000", "Cash"))
	require.ErrorIs(t, err, domain.ErrAmountMismatch)
	assert.Equal(t, billingdomain.StatusUnpaid, f.ReloadBill(t, bill.ID).Status)

	_, err = svc.PayBill(ctx, payRequest(f, bill, "1100.00", "Cash"))
	require.NoError(t, err)
}

func TestPaymentDelete_KeepsBillStatus(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)
	ctx := context.Background()

	payment, err := svc.PayBill(ctx, payRequest(f, bill, "1100", "Cash"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, payment.ID.String()))
	assert.Zero(t, countPayments(t, f, bill))
	assert.Equal(t, billingdomain.StatusPaid, f.ReloadBill(t, bill.ID).Status)

	require.ErrorIs(t, svc.Delete(ctx, payment.ID.String()), domain.ErrNotFound)
}

func TestPaymentList(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	first := f.Bill(t, meter, "100", "150")
	second := f.Bill(t, meter, "150", "160")
	svc := newPaymentService(f)
	ctx := context.Background()

	_, err := svc.PayBill(ctx, payRequest(f, first, "1100", "Cash"))
	require.NoError(t, err)
	_, err = svc.PayBill(ctx, payRequest(f, second, "300", "Card"))
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListPaymentRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := svc.List(ctx, domain.ListPaymentRequest{BillID: second.ID.String()})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, domain.MethodCard, one[0].PaymentMethod)
}

func TestAggregate(t *testing.T) {
	day := func(d int) datatypes.Date {
		return datatypes.Date(time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC))
	}
	payments := []domain.Payment{
		{PaymentMethod: domain.MethodCash, AmountPaid: decimal.RequireFromString("10.50"), PaymentDate: day(2)},
		{PaymentMethod: domain.MethodCard, AmountPaid: decimal.RequireFromString("20"), PaymentDate: day(1)},
		{PaymentMethod: domain.MethodCash, AmountPaid: decimal.RequireFromString("4.50"), PaymentDate: day(2)},
	}
	from := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	stats := service.Aggregate(payments, from, to)
	assert.Equal(t, "2024-02-02", stats.From)
	assert.Equal(t, "2024-03-02", stats.To)

	require.Len(t, stats.ByMethod, 2)
	assert.Equal(t, domain.MethodCard, stats.ByMethod[0].PaymentMethod)
	assert.Equal(t, domain.MethodCash, stats.ByMethod[1].PaymentMethod)
	assert.Equal(t, int64(2), stats.ByMethod[1].Count)
	assert.Equal(t, "15.00", stats.ByMethod[1].TotalAmount.StringFixed(2))

	require.Len(t, stats.ByDay, 2)
	assert.Equal(t, "2024-03-01", stats.ByDay[0].Date)
	assert.Equal(t, "2024-03-02", stats.ByDay[1].Date)
	assert.Equal(t, "15.00", stats.ByDay[1].TotalAmount.StringFixed(2))

	empty := service.Aggregate(nil, from, to)
	assert.NotNil(t, empty.ByMethod)
	assert.Empty(t, empty.ByDay)
}

func TestPaymentStats(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "100", "150")
	svc := newPaymentService(f)
	ctx := context.Background()

	_, err := svc.PayBill(ctx, payRequest(f, bill, "1100", "Cash"))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-15", stats.From)
	assert.Equal(t, "2024-03-15", stats.To)
	require.Len(t, stats.ByMethod, 1)
	assert.Equal(t, "1100.00", stats.ByMethod[0].TotalAmount.StringFixed(2))
}
