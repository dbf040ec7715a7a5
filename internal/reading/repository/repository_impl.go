package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/reading/domain"
	"gorm.io/gorm"
)

const defaultListLimit = 500

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reading *domain.Reading) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO readings (id, meter_id, reading_date, previous_reading, current_reading, reading_taken_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reading.ID,
		reading.MeterID,
		reading.ReadingDate,
		reading.PreviousReading,
		reading.CurrentReading,
		reading.ReadingTakenBy,
		reading.CreatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM readings WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Reading, error) {
	var reading domain.Reading
	err := db.WithContext(ctx).Raw(
		`SELECT id, meter_id, reading_date, previous_reading, current_reading, reading_taken_by, created_at
		 FROM readings WHERE id = ?`,
		id,
	).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, meterID snowflake.ID, limit int) ([]domain.ReadingView, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	var readings []domain.ReadingView
	stmt := db.WithContext(ctx).
		Table("readings AS r").
		Select(`r.id, r.meter_id, r.reading_date, r.previous_reading, r.current_reading, r.reading_taken_by, r.created_at,
			m.serial_number, c.name AS customer_name, u.type_name, u.unit_of_measure,
			COALESCE(usr.username, '') AS taken_by_name`).
		Joins("JOIN meters AS m ON m.id = r.meter_id").
		Joins("JOIN customers AS c ON c.id = m.customer_id").
		Joins("JOIN utility_types AS u ON u.id = m.utility_type_id").
		Joins("LEFT JOIN users AS usr ON usr.id = r.reading_taken_by")
	if meterID != 0 {
		stmt = stmt.Where("r.meter_id = ?", meterID)
	}
	err := stmt.Order("r.reading_date DESC, r.id DESC").Limit(limit).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) Last(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (*domain.Reading, error) {
	var reading domain.Reading
	err := db.WithContext(ctx).Raw(
		`SELECT id, meter_id, reading_date, previous_reading, current_reading, reading_taken_by, created_at
		 FROM readings
		 WHERE meter_id = ?
		 ORDER BY reading_date DESC, id DESC
		 LIMIT 1`,
		meterID,
	).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) CountByMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM readings WHERE meter_id = ?`, meterID).Scan(&count).Error
	return count, err
}
