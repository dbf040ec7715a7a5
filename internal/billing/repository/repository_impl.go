package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/pkg/db"
	"gorm.io/gorm"
)

const (
	billColumns = `id, reading_id, bill_date, units_consumed, total_amount, due_date, status, created_at, updated_at`

	billViewSelect = `b.id, b.reading_id, b.bill_date, b.units_consumed, b.total_amount, b.due_date, b.status,
		b.created_at, b.updated_at, r.meter_id, r.reading_date, r.previous_reading, r.current_reading,
		m.serial_number, m.customer_id, c.name AS customer_name, u.type_name, u.unit_of_measure,
		COALESCE(p.amount_paid, 0) AS amount_paid, COALESCE(p.payment_count, 0) AS payment_count`

	paymentTotals = `LEFT JOIN (
		SELECT bill_id, SUM(amount_paid) AS amount_paid, COUNT(*) AS payment_count
		FROM payments GROUP BY bill_id
	) AS p ON p.bill_id = b.id`

	defaultListLimit = 1000
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID,
		bill.ReadingID,
		bill.BillDate,
		bill.UnitsConsumed,
		bill.TotalAmount,
		bill.DueDate,
		bill.Status,
		bill.CreatedAt,
		bill.UpdatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM bills WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	return r.findOne(ctx, db, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	return r.findOne(ctx, tx, `SELECT `+billColumns+` FROM bills WHERE id = ?`+db.ForUpdate(tx), id)
}

func (r *repo) FindByReadingID(ctx context.Context, db *gorm.DB, readingID snowflake.ID) (*domain.Bill, error) {
	return r.findOne(ctx, db, `SELECT `+billColumns+` FROM bills WHERE reading_id = ?`, readingID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Bill, error) {
	var bill domain.Bill
	if err := db.WithContext(ctx).Raw(query, arg).Scan(&bill).Error; err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) FindView(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillView, error) {
	var view domain.BillView
	err := r.viewQuery(ctx, db).Where("b.id = ?", id).Scan(&view).Error
	if err != nil {
		return nil, err
	}
	if view.ID == 0 {
		return nil, nil
	}
	return &view, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.BillFilter) ([]domain.BillView, error) {
	stmt := r.viewQuery(ctx, db)
	if filter.Status != "" {
		stmt = stmt.Where("b.status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		stmt = stmt.Where("b.status IN ?", filter.Statuses)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where("m.customer_id = ?", filter.CustomerID)
	}
	if filter.From != nil {
		stmt = stmt.Where("b.bill_date >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("b.bill_date < ?", *filter.To)
	}
	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	var views []domain.BillView
	err := stmt.Order("b.bill_date DESC, b.id DESC").Limit(limit).Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (r *repo) viewQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("bills AS b").
		Select(billViewSelect).
		Joins("JOIN readings AS r ON r.id = b.reading_id").
		Joins("JOIN meters AS m ON m.id = r.meter_id").
		Joins("JOIN customers AS c ON c.id = m.customer_id").
		Joins("JOIN utility_types AS u ON u.id = m.utility_type_id").
		Joins(paymentTotals)
}

func (r *repo) Summary(ctx context.Context, db *gorm.DB) ([]domain.StatusSummary, error) {
	var rows []domain.StatusSummary
	err := db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount
		 FROM bills GROUP BY status ORDER BY status`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CountPayments(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM payments WHERE bill_id = ?`, id).Scan(&count).Error
	return count, err
}

func (r *repo) TransitionToPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bills SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		domain.StatusPaid,
		now,
		id,
		domain.StatusUnpaid,
		domain.StatusOverdue,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bills SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		now,
		id,
		from,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, today, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bills SET status = ?, updated_at = ? WHERE status = ? AND due_date < ?`,
		domain.StatusOverdue,
		now,
		domain.StatusUnpaid,
		today,
	)
	return result.RowsAffected, result.Error
}
