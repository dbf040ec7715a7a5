package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	"github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/internal/customer/repository"
	"github.com/smallbiznis/utilibill/internal/customer/service"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomerService(f *billingtest.Fixture) domain.Service {
	return service.New(service.Params{
		DB:    f.DB,
		Log:   f.Log,
		GenID: f.GenID,
		Clock: f.Clock,
		Repo:  repository.Provide(),
	})
}

func TestCreateCustomer(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:         "  Acme Water Works ",
		Address:      "12 Harbour Road",
		Phone:        "555-0199",
		Email:        "billing@acme.example",
		CustomerType: "Business",
		Metadata:     map[string]any{"account": "A-17"},
	})
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)
	assert.Equal(t, "Acme Water Works", customer.Name)
	assert.Equal(t, domain.CustomerTypeBusiness, customer.CustomerType)
	assert.Equal(t, billingtest.Epoch, customer.CreatedAt)

	stored, err := svc.GetByID(ctx, customer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "A-17", stored.Metadata["account"])
}

func TestCreateCustomerValidation(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateCustomerRequest
		err  error
	}{
		{"blank name", domain.CreateCustomerRequest{Name: "  ", CustomerType: "Household"}, domain.ErrInvalidName},
		{"bad email", domain.CreateCustomerRequest{Name: "Jo", Email: "not-an-email", CustomerType: "Household"}, domain.ErrInvalidEmail},
		{"unknown type", domain.CreateCustomerRequest{Name: "Jo", CustomerType: "Alien"}, domain.ErrInvalidCustomerType},
		{"missing type", domain.CreateCustomerRequest{Name: "Jo"}, domain.ErrInvalidCustomerType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestUpdateCustomerAppliesOnlyGivenFields(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()
	customer := f.Customer(t, "Jane Household", domain.CustomerTypeHousehold)

	phone := "555-0142"
	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{ID: customer.ID.String(), Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0142", updated.Phone)
	assert.Equal(t, "Jane Household", updated.Name)
	assert.Equal(t, domain.CustomerTypeHousehold, updated.CustomerType)

	bad := "Alien"
	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: customer.ID.String(), CustomerType: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerType)

	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: f.GenID.Generate().String(), Phone: &phone})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCustomerRefusedWhileMetersExist(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()

	customer := f.Customer(t, "Metered", domain.CustomerTypeHousehold)
	f.Meter(t, "M-DEL", customer, f.UtilityType(t, "Water"), meterdomain.StatusActive)
	assert.ErrorIs(t, svc.Delete(ctx, customer.ID.String()), domain.ErrHasMeters)

	bare := f.Customer(t, "Unmetered", domain.CustomerTypeHousehold)
	require.NoError(t, svc.Delete(ctx, bare.ID.String()))
	_, err := svc.GetByID(ctx, bare.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "abc"), domain.ErrInvalidID)
}

func TestListCustomersPaginatesNewestFirst(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()

	first := f.Customer(t, "First", domain.CustomerTypeHousehold)
	second := f.Customer(t, "Second", domain.CustomerTypeHousehold)
	third := f.Customer(t, "Third", domain.CustomerTypeBusiness)

	page, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Customers, 2)
	assert.Equal(t, third.ID, page.Customers[0].ID)
	assert.Equal(t, second.ID, page.Customers[1].ID)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	next, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, next.Customers, 1)
	assert.Equal(t, first.ID, next.Customers[0].ID)
	assert.False(t, next.HasMore)
}

func TestListCustomersFilters(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()

	f.Customer(t, "Harbour Cafe", domain.CustomerTypeBusiness)
	f.Customer(t, "Town Hall", domain.CustomerTypeGovernment)

	resp, err := svc.List(ctx, domain.ListCustomerRequest{Search: "harbour"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Harbour Cafe", resp.Customers[0].Name)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{CustomerType: "Government"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Town Hall", resp.Customers[0].Name)

	// Every fixture customer shares the same address.
	resp, err = svc.List(ctx, domain.ListCustomerRequest{Search: "MAIN street"})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)
}

func TestListCustomersRejectsBadPaging(t *testing.T) {
	f := billingtest.New(t)
	svc := newCustomerService(f)
	ctx := context.Background()

	_, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 500})
	assert.ErrorIs(t, err, domain.ErrInvalidPageSize)

	_, err = svc.List(ctx, domain.ListCustomerRequest{PageToken: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
