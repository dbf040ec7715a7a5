package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, meter *Meter) error
	Update(ctx context.Context, db *gorm.DB, meter *Meter) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Meter, error)
	List(ctx context.Context, db *gorm.DB, filter ListMeterFilter) ([]MeterView, error)
	FindBillingProfile(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingProfile, error)
	CustomerExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	UtilityTypeExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	CountReadings(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
