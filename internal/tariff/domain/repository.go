package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	Update(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	List(ctx context.Context, db *gorm.DB) ([]TariffView, error)
	// FindByUtilityAndCustomerType returns the lowest-id match, or nil.
	FindByUtilityAndCustomerType(ctx context.Context, db *gorm.DB, utilityTypeID snowflake.ID, customerType customerdomain.CustomerType) (*Tariff, error)
}

type UtilityTypeRepository interface {
	Insert(ctx context.Context, db *gorm.DB, utilityType *UtilityType) error
	Update(ctx context.Context, db *gorm.DB, utilityType *UtilityType) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*UtilityType, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*UtilityType, error)
	List(ctx context.Context, db *gorm.DB) ([]UtilityType, error)
	CountReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
