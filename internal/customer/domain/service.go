package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/utilibill/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken    string
	PageSize     int32
	Search       string
	CustomerType string
}

type ListCustomerFilter struct {
	Search       string
	CustomerType CustomerType
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name         string
	Address      string
	Phone        string
	Email        string
	CustomerType string
	Metadata     map[string]any
}

// UpdateCustomerRequest applies only the non-nil fields.
type UpdateCustomerRequest struct {
	ID           string
	Name         *string
	Address      *string
	Phone        *string
	Email        *string
	CustomerType *string
	Metadata     map[string]any
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidCustomerType = errors.New("invalid_customer_type")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidPageSize     = errors.New("invalid_page_size")
	ErrNotFound            = errors.New("not_found")
	ErrHasMeters           = errors.New("customer_has_meters")
)
