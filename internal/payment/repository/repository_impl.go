package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/payment/domain"
	"gorm.io/gorm"
)

const defaultListLimit = 500

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, bill_id, payment_date, amount_paid, payment_method, processed_by, receipt_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.BillID,
		payment.PaymentDate,
		payment.AmountPaid,
		payment.PaymentMethod,
		payment.ProcessedBy,
		payment.ReceiptNumber,
		payment.CreatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM payments WHERE id = ?`, id).Error
}

func viewQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("payments AS p").
		Select(`p.id, p.bill_id, p.payment_date, p.amount_paid, p.payment_method, p.processed_by,
			p.receipt_number, p.created_at, b.total_amount, c.name AS customer_name, m.serial_number,
			COALESCE(u.username, '') AS processed_by_name`).
		Joins("JOIN bills AS b ON b.id = p.bill_id").
		Joins("JOIN readings AS r ON r.id = b.reading_id").
		Joins("JOIN meters AS m ON m.id = r.meter_id").
		Joins("JOIN customers AS c ON c.id = m.customer_id").
		Joins("LEFT JOIN users AS u ON u.id = p.processed_by")
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentView, error) {
	var view domain.PaymentView
	err := viewQuery(ctx, db).Where("p.id = ?", id).Limit(1).Scan(&view).Error
	if err != nil {
		return nil, err
	}
	if view.ID == 0 {
		return nil, nil
	}
	return &view, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, billID snowflake.ID, limit int) ([]domain.PaymentView, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	stmt := viewQuery(ctx, db)
	if billID != 0 {
		stmt = stmt.Where("p.bill_id = ?", billID)
	}
	var views []domain.PaymentView
	err := stmt.Order("p.payment_date DESC").Order("p.id DESC").Limit(limit).Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (r *repo) ListSince(ctx context.Context, db *gorm.DB, since time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, payment_date, amount_paid, payment_method, processed_by, receipt_number, created_at
		 FROM payments
		 WHERE payment_date >= ?
		 ORDER BY payment_date ASC, id ASC`,
		since,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
