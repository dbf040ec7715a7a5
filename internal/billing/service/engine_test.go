package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	"github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/billing/service"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	mock_domain "github.com/smallbiznis/utilibill/internal/tariff/domain/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReadingAndBill_Electricity(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)

	result, err := f.Engine(nil).RecordReadingAndBill(context.Background(), f.Reading(meter, "100", "150"))
	require.NoError(t, err)

	bill := result.Bill
	today := clock.Today(f.Clock)
	assert.Equal(t, "50.00", bill.UnitsConsumed.StringFixed(2))
	assert.Equal(t, "1100.00", bill.TotalAmount.StringFixed(2))
	assert.Equal(t, domain.StatusUnpaid, bill.Status)
	assert.Equal(t, today, time.Time(bill.BillDate))
	assert.Equal(t, today.AddDate(0, 0, 30), time.Time(bill.DueDate))
	assert.Equal(t, result.Reading.ID, bill.ReadingID)
	assert.False(t, result.Rate.Fallback)

	stored := f.ReloadBill(t, bill.ID)
	assert.Equal(t, "1100.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, "50.00", stored.UnitsConsumed.StringFixed(2))
	assert.Equal(t, domain.StatusUnpaid, stored.Status)
	assert.True(t, today.AddDate(0, 0, 30).Equal(time.Time(stored.DueDate)))
	assert.Equal(t, int64(1), f.CountReadings(t, meter.ID))
}

func TestRecordReadingAndBill_RejectsBackwardsReading(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)

	_, err := f.Engine(nil).RecordReadingAndBill(context.Background(), f.Reading(meter, "50", "40"))
	require.ErrorIs(t, err, domain.ErrCurrentBelowPrevious)

	assert.Zero(t, f.CountReadings(t, meter.ID))
	assert.Zero(t, f.CountBills(t))
}

func TestRecordReadingAndBill_Validation(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)
	engine := f.Engine(nil)

	cases := []struct {
		name   string
		mutate func(*domain.RecordReadingRequest)
		want   error
	}{
		{
			name: "negative previous",
			mutate: func(r *domain.RecordReadingRequest) {
				r.PreviousReading = decimal.NewFromInt(-1)
			},
			want: domain.ErrNegativeReading,
		},
		{
			name: "previous below a cent",
			mutate: func(r *domain.RecordReadingRequest) {
				r.PreviousReading = decimal.RequireFromString("10.004")
			},
			want: domain.ErrReadingPrecision,
		},
		{
			name: "current below a cent",
			mutate: func(r *domain.RecordReadingRequest) {
				r.CurrentReading = decimal.RequireFromString("20.006")
			},
			want: domain.ErrReadingPrecision,
		},
		{
			name: "missing date",
			mutate: func(r *domain.RecordReadingRequest) {
				r.ReadingDate = time.Time{}
			},
			want: domain.ErrInvalidReadingDate,
		},
		{
			name: "future date",
			mutate: func(r *domain.RecordReadingRequest) {
				r.ReadingDate = clock.Today(f.Clock).AddDate(0, 0, 1)
			},
			want: domain.ErrFutureReadingDate,
		},
		{
			name: "bad meter id",
			mutate: func(r *domain.RecordReadingRequest) {
				r.MeterID = "abc"
			},
			want: domain.ErrInvalidMeterID,
		},
		{
			name: "missing officer",
			mutate: func(r *domain.RecordReadingRequest) {
				r.ReadingTakenBy = ""
			},
			want: domain.ErrInvalidReadingTakenBy,
		},
		{
			name: "unknown meter",
			mutate: func(r *domain.RecordReadingRequest) {
				r.MeterID = f.GenID.Generate().String()
			},
			want: meterdomain.ErrNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.Reading(meter, "10", "20")
			tc.mutate(&req)
			_, err := engine.RecordReadingAndBill(context.Background(), req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	assert.Zero(t, f.CountReadings(t, meter.ID))
	assert.Zero(t, f.CountBills(t))
}

func TestRecordReadingAndBill_ZeroConsumptionBillsFixedCharge(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)

	bill := f.Bill(t, meter, "150", "150")
	assert.True(t, bill.UnitsConsumed.IsZero())
	assert.Equal(t, "100.00", bill.TotalAmount.StringFixed(2))
}

func TestRecordReadingAndBill_SuspendedMeter(t *testing.T) {
	f := billingtest.New(t)
	water := f.UtilityType(t, "Water")
	customer := f.Customer(t, "Acme Ltd", customerdomain.CustomerTypeBusiness)
	f.Tariff(t, water, customerdomain.CustomerTypeBusiness, "3.5", "0")
	meter := f.Meter(t, "W-1", customer, water, meterdomain.StatusSuspended)

	_, err := f.Engine(nil).RecordReadingAndBill(context.Background(), f.Reading(meter, "0", "10"))
	require.ErrorIs(t, err, domain.ErrMeterNotActive)

	f.SetPolicy(t, func(p *config.BillingPolicy) { p.RequireActiveMeter = false })
	bill := f.Bill(t, meter, "0", "10")
	assert.Equal(t, "35.00", bill.TotalAmount.StringFixed(2))
}

func TestRecordReadingAndBill_IsDeterministic(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)

	first := f.Bill(t, meter, "100", "150")
	second := f.Bill(t, meter, "100", "150")
	third := f.Bill(t, meter, "100", "150")

	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.True(t, second.TotalAmount.Equal(third.TotalAmount))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(3), f.CountBills(t))
}

func TestRecordReadingAndBill_RollsBackWhenTariffLookupFails(t *testing.T) {
	f := billingtest.New(t)
	meter := f.ElectricHousehold(t)

	ctrl := gomock.NewController(t)
	resolver := mock_domain.NewMockResolver(ctrl)
	lookupErr := errors.New("tariff store unavailable")
	resolver.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), meter.ID).
		Return(tariffdomain.Rate{}, lookupErr)

	_, err := f.Engine(resolver).RecordReadingAndBill(context.Background(), f.Reading(meter, "100", "150"))
	require.ErrorIs(t, err, lookupErr)

	assert.Zero(t, f.CountReadings(t, meter.ID))
	assert.Zero(t, f.CountBills(t))
}

func TestRecordReadingAndBill_MissingTariff(t *testing.T) {
	f := billingtest.New(t)
	gas := f.UtilityType(t, "Gas")
	customer := f.Customer(t, "City Hall", customerdomain.CustomerTypeGovernment)
	meter := f.Meter(t, "G-1", customer, gas, meterdomain.StatusActive)

	t.Run("zero policy bills nothing", func(t *testing.T) {
		result, err := f.Engine(nil).RecordReadingAndBill(context.Background(), f.Reading(meter, "0", "12.5"))
		require.NoError(t, err)
		assert.True(t, result.Rate.Fallback)
		assert.True(t, result.Bill.TotalAmount.IsZero())
		assert.Equal(t, "12.50", result.Bill.UnitsConsumed.StringFixed(2))
	})

	t.Run("reject policy persists nothing", func(t *testing.T) {
		f.SetPolicy(t, func(p *config.BillingPolicy) { p.MissingTariffPolicy = config.MissingTariffReject })
		before := f.CountReadings(t, meter.ID)

		_, err := f.Engine(nil).RecordReadingAndBill(context.Background(), f.Reading(meter, "12.5", "20"))
		require.ErrorIs(t, err, tariffdomain.ErrTariffNotFound)
		assert.Equal(t, before, f.CountReadings(t, meter.ID))
	})
}

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		units, rate, fixed, want string
	}{
		{"50", "20", "100", "1100.00"},
		{"0", "20", "100", "100.00"},
		{"1.25", "0.5", "0", "0.63"},
		{"10.55", "0.1235", "2.5", "3.80"},
	}
	for _, tc := range cases {
		got := service.ComputeTotal(decimal.RequireFromString(tc.units), tariffdomain.Rate{
			RatePerUnit: decimal.RequireFromString(tc.rate),
			FixedCharge: decimal.RequireFromString(tc.fixed),
		})
		assert.Equal(t, tc.want, got.StringFixed(2), "units=%s rate=%s", tc.units, tc.rate)
	}
}
