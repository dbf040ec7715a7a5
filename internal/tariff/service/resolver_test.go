package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	"github.com/smallbiznis/utilibill/internal/config"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	"github.com/smallbiznis/utilibill/internal/tariff/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMatchesCustomerType(t *testing.T) {
	f := billingtest.New(t)
	water := f.UtilityType(t, "Water")
	customer := f.Customer(t, "Harbour Cafe", customerdomain.CustomerTypeBusiness)
	meter := f.Meter(t, "W-9", customer, water, meterdomain.StatusActive)

	f.Tariff(t, water, customerdomain.CustomerTypeHousehold, "2.00", "10.00")
	business := f.Tariff(t, water, customerdomain.CustomerTypeBusiness, "4.00", "25.00")
	f.Tariff(t, f.UtilityType(t, "Gas"), customerdomain.CustomerTypeBusiness, "9.00", "90.00")

	rate, err := f.Resolver().Resolve(context.Background(), f.DB, meter.ID)
	require.NoError(t, err)
	assert.Equal(t, business.ID, rate.TariffID)
	assert.Equal(t, "4.00", rate.RatePerUnit.StringFixed(2))
	assert.Equal(t, "25.00", rate.FixedCharge.StringFixed(2))
	assert.False(t, rate.Fallback)
}

func TestResolveMissingTariffFollowsPolicy(t *testing.T) {
	f := billingtest.New(t)
	gas := f.UtilityType(t, "Gas")
	meter := f.Meter(t, "G-9", f.Customer(t, "City Hall", customerdomain.CustomerTypeGovernment), gas, meterdomain.StatusActive)

	rate, err := f.Resolver().Resolve(context.Background(), f.DB, meter.ID)
	require.NoError(t, err)
	assert.True(t, rate.Fallback)
	assert.True(t, rate.RatePerUnit.IsZero())
	assert.True(t, rate.FixedCharge.IsZero())

	f.SetPolicy(t, func(p *config.BillingPolicy) { p.MissingTariffPolicy = config.MissingTariffReject })
	_, err = f.Resolver().Resolve(context.Background(), f.DB, meter.ID)
	assert.ErrorIs(t, err, domain.ErrTariffNotFound)
}

func TestResolveUnknownMeter(t *testing.T) {
	f := billingtest.New(t)
	_, err := f.Resolver().Resolve(context.Background(), f.DB, f.GenID.Generate())
	assert.ErrorIs(t, err, meterdomain.ErrNotFound)
}
