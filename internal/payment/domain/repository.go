package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentView, error)
	// List returns payments newest first, optionally for one bill.
	List(ctx context.Context, db *gorm.DB, billID snowflake.ID, limit int) ([]PaymentView, error)
	// ListSince returns raw payments dated on or after since.
	ListSince(ctx context.Context, db *gorm.DB, since time.Time) ([]Payment, error)
}
