package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTariffRequest struct {
	UtilityTypeID string
	CustomerType  string
	RatePerUnit   decimal.Decimal
	FixedCharge   *decimal.Decimal
}

type UpdateTariffRequest struct {
	ID            string
	UtilityTypeID *string
	CustomerType  *string
	RatePerUnit   *decimal.Decimal
	FixedCharge   *decimal.Decimal
}

type UtilityTypeRequest struct {
	ID            string
	TypeName      string
	UnitOfMeasure string
}

type Service interface {
	CreateTariff(context.Context, CreateTariffRequest) (Tariff, error)
	UpdateTariff(context.Context, UpdateTariffRequest) (Tariff, error)
	DeleteTariff(ctx context.Context, id string) error
	GetTariff(ctx context.Context, id string) (Tariff, error)
	ListTariffs(ctx context.Context) ([]TariffView, error)

	CreateUtilityType(context.Context, UtilityTypeRequest) (UtilityType, error)
	UpdateUtilityType(context.Context, UtilityTypeRequest) (UtilityType, error)
	DeleteUtilityType(ctx context.Context, id string) error
	GetUtilityType(ctx context.Context, id string) (UtilityType, error)
	ListUtilityTypes(ctx context.Context) ([]UtilityType, error)
}

//go:generate mockgen -destination=mock/resolver_mock.go -package=mock_domain . Resolver

// Resolver prices a meter's consumption. db may be a transaction.
type Resolver interface {
	Resolve(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (Rate, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidUtilityType   = errors.New("invalid_utility_type")
	ErrInvalidCustomerType  = errors.New("invalid_customer_type")
	ErrInvalidRatePerUnit   = errors.New("invalid_rate_per_unit")
	ErrInvalidFixedCharge   = errors.New("invalid_fixed_charge")
	ErrInvalidTypeName      = errors.New("invalid_type_name")
	ErrInvalidUnitOfMeasure = errors.New("invalid_unit_of_measure")
	ErrNotFound             = errors.New("not_found")
	ErrUtilityTypeNotFound  = errors.New("utility_type_not_found")
	ErrTariffNotFound       = errors.New("tariff_not_found")
	ErrDuplicateTariff      = errors.New("duplicate_tariff")
	ErrDuplicateUtilityType = errors.New("duplicate_utility_type")
	ErrUtilityTypeInUse     = errors.New("utility_type_in_use")
)
