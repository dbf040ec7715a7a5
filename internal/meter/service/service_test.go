package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/internal/meter/domain"
	"github.com/smallbiznis/utilibill/internal/meter/repository"
	"github.com/smallbiznis/utilibill/internal/meter/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMeterService(f *billingtest.Fixture) domain.Service {
	return service.New(service.Params{
		DB:    f.DB,
		Log:   f.Log,
		GenID: f.GenID,
		Clock: f.Clock,
		Repo:  repository.Provide(),
	})
}

var installed = time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)

func TestCreateMeterDefaultsToActive(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	customer := f.Customer(t, "Jane Household", customerdomain.CustomerTypeHousehold)
	water := f.UtilityType(t, "Water")

	meter, err := svc.Create(context.Background(), domain.CreateMeterRequest{
		SerialNumber:     " W-100 ",
		CustomerID:       customer.ID.String(),
		UtilityTypeID:    water.ID.String(),
		InstallationDate: installed,
	})
	require.NoError(t, err)
	assert.Equal(t, "W-100", meter.SerialNumber)
	assert.Equal(t, domain.StatusActive, meter.Status)
	assert.True(t, installed.Equal(time.Time(meter.InstallationDate)))
}

func TestCreateMeterValidation(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	ctx := context.Background()
	customer := f.Customer(t, "Jane Household", customerdomain.CustomerTypeHousehold)
	water := f.UtilityType(t, "Water")

	valid := func() domain.CreateMeterRequest {
		return domain.CreateMeterRequest{
			SerialNumber:     "W-200",
			CustomerID:       customer.ID.String(),
			UtilityTypeID:    water.ID.String(),
			InstallationDate: installed,
		}
	}

	cases := []struct {
		name   string
		mutate func(*domain.CreateMeterRequest)
		err    error
	}{
		{"blank serial", func(r *domain.CreateMeterRequest) { r.SerialNumber = " " }, domain.ErrInvalidSerialNumber},
		{"bad customer id", func(r *domain.CreateMeterRequest) { r.CustomerID = "x" }, domain.ErrInvalidCustomer},
		{"unknown customer", func(r *domain.CreateMeterRequest) { r.CustomerID = f.GenID.Generate().String() }, domain.ErrInvalidCustomer},
		{"unknown utility type", func(r *domain.CreateMeterRequest) { r.UtilityTypeID = f.GenID.Generate().String() }, domain.ErrInvalidUtilityType},
		{"missing installation date", func(r *domain.CreateMeterRequest) { r.InstallationDate = time.Time{} }, domain.ErrInvalidInstallationDate},
		{"unknown status", func(r *domain.CreateMeterRequest) { r.Status = "Broken" }, domain.ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCreateMeterRejectsDuplicateSerial(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	customer := f.Customer(t, "Jane Household", customerdomain.CustomerTypeHousehold)
	f.Meter(t, "DUP-1", customer, f.UtilityType(t, "Gas"), domain.StatusActive)

	_, err := svc.Create(context.Background(), domain.CreateMeterRequest{
		SerialNumber:     "DUP-1",
		CustomerID:       customer.ID.String(),
		UtilityTypeID:    f.UtilityType(t, "Water").ID.String(),
		InstallationDate: installed,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSerialNumber)
}

func TestUpdateMeterKeepsUtilityType(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	ctx := context.Background()
	customer := f.Customer(t, "Jane Household", customerdomain.CustomerTypeHousehold)
	water := f.UtilityType(t, "Water")
	meter := f.Meter(t, "W-300", customer, water, domain.StatusActive)

	gas := f.UtilityType(t, "Gas").ID.String()
	_, err := svc.Update(ctx, domain.UpdateMeterRequest{ID: meter.ID.String(), UtilityTypeID: &gas})
	assert.ErrorIs(t, err, domain.ErrUtilityTypeImmutable)

	same := water.ID.String()
	serial := "W-301"
	updated, err := svc.Update(ctx, domain.UpdateMeterRequest{ID: meter.ID.String(), UtilityTypeID: &same, SerialNumber: &serial})
	require.NoError(t, err)
	assert.Equal(t, "W-301", updated.SerialNumber)
	assert.Equal(t, water.ID, updated.UtilityTypeID)
}

func TestSetStatusTogglesSuspension(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	ctx := context.Background()
	meter := f.ElectricHousehold(t)

	suspended, err := svc.SetStatus(ctx, meter.ID.String(), "Suspended")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, suspended.Status)

	active, err := svc.SetStatus(ctx, meter.ID.String(), "Active")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, active.Status)

	_, err = svc.SetStatus(ctx, meter.ID.String(), "Retired")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDeleteMeterRefusedWithReadings(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	ctx := context.Background()
	meter := f.ElectricHousehold(t)
	f.Bill(t, meter, "0", "10")

	assert.ErrorIs(t, svc.Delete(ctx, meter.ID.String()), domain.ErrHasReadings)

	customer := f.Customer(t, "Spare", customerdomain.CustomerTypeHousehold)
	spare := f.Meter(t, "SPARE-1", customer, f.UtilityType(t, "Water"), domain.StatusActive)
	require.NoError(t, svc.Delete(ctx, spare.ID.String()))
	_, err := svc.GetByID(ctx, spare.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMetersJoinsOwnerAndType(t *testing.T) {
	f := billingtest.New(t)
	svc := newMeterService(f)
	ctx := context.Background()

	jane := f.Customer(t, "Jane", customerdomain.CustomerTypeHousehold)
	acme := f.Customer(t, "Acme", customerdomain.CustomerTypeBusiness)
	f.Meter(t, "A-1", jane, f.UtilityType(t, "Electricity"), domain.StatusActive)
	f.Meter(t, "B-1", jane, f.UtilityType(t, "Water"), domain.StatusSuspended)
	f.Meter(t, "C-1", acme, f.UtilityType(t, "Gas"), domain.StatusActive)

	all, err := svc.List(ctx, domain.ListMeterRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A-1", all[0].SerialNumber)
	assert.Equal(t, "Jane", all[0].CustomerName)
	assert.Equal(t, "kWh", all[0].UnitOfMeasure)

	janes, err := svc.List(ctx, domain.ListMeterRequest{CustomerID: jane.ID.String(), Status: "Active"})
	require.NoError(t, err)
	require.Len(t, janes, 1)
	assert.Equal(t, "A-1", janes[0].SerialNumber)

	none, err := svc.List(ctx, domain.ListMeterRequest{Status: "Suspended", CustomerID: acme.ID.String()})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}
