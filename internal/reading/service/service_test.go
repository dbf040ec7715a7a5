package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	"github.com/smallbiznis/utilibill/internal/reading/domain"
	"github.com/smallbiznis/utilibill/internal/reading/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newReadingService(f *billingtest.Fixture) domain.Service {
	return service.New(service.Params{
		DB:    f.DB,
		Log:   f.Log,
		Repo:  f.Reads,
		Bills: f.Bills,
	})
}

func TestListReadingsNewestFirst(t *testing.T) {
	f := billingtest.New(t)
	svc := newReadingService(f)
	ctx := context.Background()
	meter := f.ElectricHousehold(t)
	first := f.Bill(t, meter, "0", "50")
	second := f.Bill(t, meter, "50", "80")

	water := f.UtilityType(t, "Water")
	other := f.Meter(t, "W-1", f.Customer(t, "Harbour Cafe", customerdomain.CustomerTypeBusiness), water, meterdomain.StatusActive)
	f.Bill(t, other, "10", "12")

	views, err := svc.List(ctx, domain.ListReadingRequest{MeterID: meter.ID.String()})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ReadingID, views[0].ID)
	assert.Equal(t, first.ReadingID, views[1].ID)
	assert.Equal(t, "M1", views[0].SerialNumber)
	assert.Equal(t, "Jane Household", views[0].CustomerName)
	assert.Equal(t, "kWh", views[0].UnitOfMeasure)
	assert.Equal(t, "officer", views[0].TakenByName)

	all, err := svc.List(ctx, domain.ListReadingRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := svc.List(ctx, domain.ListReadingRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = svc.List(ctx, domain.ListReadingRequest{MeterID: "M1"})
	assert.ErrorIs(t, err, domain.ErrInvalidMeterID)
}

func TestLastReading(t *testing.T) {
	f := billingtest.New(t)
	svc := newReadingService(f)
	ctx := context.Background()
	meter := f.ElectricHousehold(t)

	_, err := svc.Last(ctx, meter.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.Bill(t, meter, "0", "50")
	f.Clock.Advance(24 * time.Hour)
	f.Bill(t, meter, "50", "75.5")

	last, err := svc.Last(ctx, meter.ID.String())
	require.NoError(t, err)
	assert.True(t, last.CurrentReading.Equal(decimal.RequireFromString("75.5")))
	assert.True(t, last.Units().Equal(decimal.RequireFromString("25.5")))
}

func TestGetReadingByID(t *testing.T) {
	f := billingtest.New(t)
	svc := newReadingService(f)
	ctx := context.Background()
	bill := f.Bill(t, f.ElectricHousehold(t), "0", "50")

	reading, err := svc.GetByID(ctx, bill.ReadingID.String())
	require.NoError(t, err)
	assert.Equal(t, f.Officer.ID, reading.ReadingTakenBy)

	_, err = svc.GetByID(ctx, f.GenID.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetByID(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteReadingRemovesItsBill(t *testing.T) {
	f := billingtest.New(t)
	svc := newReadingService(f)
	ctx := context.Background()
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "0", "50")

	require.NoError(t, svc.Delete(ctx, bill.ReadingID.String()))
	assert.Zero(t, f.CountReadings(t, meter.ID))
	assert.Zero(t, f.CountBills(t))

	assert.ErrorIs(t, svc.Delete(ctx, bill.ReadingID.String()), domain.ErrNotFound)
}

func TestDeleteReadingRefusedWhenBillHasPayments(t *testing.T) {
	f := billingtest.New(t)
	svc := newReadingService(f)
	ctx := context.Background()
	meter := f.ElectricHousehold(t)
	bill := f.Bill(t, meter, "0", "50")

	payment := paymentdomain.Payment{
		ID:            f.GenID.Generate(),
		BillID:        bill.ID,
		PaymentDate:   datatypes.Date(clock.Today(f.Clock)),
		AmountPaid:    decimal.RequireFromString("500.00"),
		PaymentMethod: paymentdomain.MethodCash,
		ProcessedBy:   f.Officer.ID,
		ReceiptNumber: "RCPT-TEST-1",
		CreatedAt:     billingtest.Epoch,
	}
	require.NoError(t, f.DB.Create(&payment).Error)

	err := svc.Delete(ctx, bill.ReadingID.String())
	assert.ErrorIs(t, err, domain.ErrBillHasPayment)
	assert.Equal(t, int64(1), f.CountReadings(t, meter.ID))
	assert.Equal(t, billingdomain.StatusUnpaid, f.ReloadBill(t, bill.ID).Status)
}
