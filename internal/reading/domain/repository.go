package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *Reading) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reading, error)
	// List returns readings newest first, optionally for one meter.
	List(ctx context.Context, db *gorm.DB, meterID snowflake.ID, limit int) ([]ReadingView, error)
	// Last is the reading with the latest date, ties broken by highest id.
	Last(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (*Reading, error)
	CountByMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (int64, error)
}
