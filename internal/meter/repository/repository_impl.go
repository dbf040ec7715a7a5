package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/meter/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, meter *domain.Meter) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO meters (id, serial_number, customer_id, utility_type_id, installation_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meter.ID,
		meter.SerialNumber,
		meter.CustomerID,
		meter.UtilityTypeID,
		meter.InstallationDate,
		meter.Status,
		meter.CreatedAt,
		meter.UpdatedAt,
	).Error
}

// Update never writes utility_type_id.
func (r *repo) Update(ctx context.Context, db *gorm.DB, meter *domain.Meter) error {
	return db.WithContext(ctx).Exec(
		`UPDATE meters
		 SET serial_number = ?, customer_id = ?, installation_date = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		meter.SerialNumber,
		meter.CustomerID,
		meter.InstallationDate,
		meter.Status,
		meter.UpdatedAt,
		meter.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM meters WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Meter, error) {
	var meter domain.Meter
	err := db.WithContext(ctx).Raw(
		`SELECT id, serial_number, customer_id, utility_type_id, installation_date, status, created_at, updated_at
		 FROM meters WHERE id = ?`,
		id,
	).Scan(&meter).Error
	if err != nil {
		return nil, err
	}
	if meter.ID == 0 {
		return nil, nil
	}
	return &meter, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListMeterFilter) ([]domain.MeterView, error) {
	var meters []domain.MeterView
	stmt := db.WithContext(ctx).
		Table("meters AS m").
		Select(`m.id, m.serial_number, m.customer_id, m.utility_type_id, m.installation_date, m.status,
			m.created_at, m.updated_at, c.name AS customer_name, u.type_name, u.unit_of_measure`).
		Joins("JOIN customers AS c ON c.id = m.customer_id").
		Joins("JOIN utility_types AS u ON u.id = m.utility_type_id")
	if filter.Status != "" {
		stmt = stmt.Where("m.status = ?", filter.Status)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where("m.customer_id = ?", filter.CustomerID)
	}
	if err := stmt.Order("m.serial_number ASC").Scan(&meters).Error; err != nil {
		return nil, err
	}
	return meters, nil
}

func (r *repo) FindBillingProfile(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingProfile, error) {
	var profile domain.BillingProfile
	err := db.WithContext(ctx).Raw(
		`SELECT m.id AS meter_id, m.serial_number, m.status, m.customer_id, c.name AS customer_name,
			c.customer_type, m.utility_type_id, u.type_name
		 FROM meters AS m
		 JOIN customers AS c ON c.id = m.customer_id
		 JOIN utility_types AS u ON u.id = m.utility_type_id
		 WHERE m.id = ?`,
		id,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.MeterID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) CustomerExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	return exists(ctx, db, `SELECT COUNT(*) FROM customers WHERE id = ?`, id)
}

func (r *repo) UtilityTypeExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	return exists(ctx, db, `SELECT COUNT(*) FROM utility_types WHERE id = ?`, id)
}

func (r *repo) CountReadings(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM readings WHERE meter_id = ?`, id).Scan(&count).Error
	return count, err
}

func exists(ctx context.Context, db *gorm.DB, query string, id snowflake.ID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(query, id).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
