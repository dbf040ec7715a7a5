package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ListMeterFilter struct {
	Status     Status
	CustomerID snowflake.ID
}

type ListMeterRequest struct {
	Status     string
	CustomerID string
}

type CreateMeterRequest struct {
	SerialNumber     string
	CustomerID       string
	UtilityTypeID    string
	InstallationDate time.Time
	Status           string
}

type UpdateMeterRequest struct {
	ID               string
	SerialNumber     *string
	CustomerID       *string
	UtilityTypeID    *string
	InstallationDate *time.Time
	Status           *string
}

type Service interface {
	Create(context.Context, CreateMeterRequest) (Meter, error)
	Update(context.Context, UpdateMeterRequest) (Meter, error)
	SetStatus(ctx context.Context, id string, status string) (Meter, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Meter, error)
	List(context.Context, ListMeterRequest) ([]MeterView, error)
}

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidSerialNumber     = errors.New("invalid_serial_number")
	ErrInvalidCustomer         = errors.New("invalid_customer")
	ErrInvalidUtilityType      = errors.New("invalid_utility_type")
	ErrInvalidInstallationDate = errors.New("invalid_installation_date")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrUtilityTypeImmutable    = errors.New("utility_type_immutable")
	ErrNotFound                = errors.New("not_found")
	ErrDuplicateSerialNumber   = errors.New("duplicate_serial_number")
	ErrHasReadings             = errors.New("meter_has_readings")
)
