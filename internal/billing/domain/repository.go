package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type BillFilter struct {
	Status     Status
	Statuses   []Status
	CustomerID snowflake.ID
	From       *time.Time
	To         *time.Time
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *Bill) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	// FindByIDForUpdate row-locks the bill where the dialect supports it.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	FindByReadingID(ctx context.Context, db *gorm.DB, readingID snowflake.ID) (*Bill, error)
	FindView(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillView, error)
	List(ctx context.Context, db *gorm.DB, filter BillFilter) ([]BillView, error)
	Summary(ctx context.Context, db *gorm.DB) ([]StatusSummary, error)
	CountPayments(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	// TransitionToPaid moves an Unpaid or Overdue bill to Paid and reports rows affected.
	TransitionToPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (int64, error)
	// TransitionStatus is a compare-and-set on status.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, now time.Time) (int64, error)
	// MarkOverdue moves every Unpaid bill due before today to Overdue.
	MarkOverdue(ctx context.Context, db *gorm.DB, today, now time.Time) (int64, error)
}
