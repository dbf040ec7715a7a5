package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tariffs (id, utility_type_id, customer_type, rate_per_unit, fixed_charge, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tariff.ID,
		tariff.UtilityTypeID,
		tariff.CustomerType,
		tariff.RatePerUnit,
		tariff.FixedCharge,
		tariff.CreatedAt,
		tariff.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tariffs
		 SET utility_type_id = ?, customer_type = ?, rate_per_unit = ?, fixed_charge = ?, updated_at = ?
		 WHERE id = ?`,
		tariff.UtilityTypeID,
		tariff.CustomerType,
		tariff.RatePerUnit,
		tariff.FixedCharge,
		tariff.UpdatedAt,
		tariff.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM tariffs WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).Raw(
		`SELECT id, utility_type_id, customer_type, rate_per_unit, fixed_charge, created_at, updated_at
		 FROM tariffs WHERE id = ?`,
		id,
	).Scan(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.TariffView, error) {
	var tariffs []domain.TariffView
	err := db.WithContext(ctx).Raw(
		`SELECT t.id, t.utility_type_id, t.customer_type, t.rate_per_unit, t.fixed_charge, t.created_at, t.updated_at,
			u.type_name, u.unit_of_measure
		 FROM tariffs AS t
		 JOIN utility_types AS u ON u.id = t.utility_type_id
		 ORDER BY u.type_name ASC, t.customer_type ASC, t.id ASC`,
	).Scan(&tariffs).Error
	if err != nil {
		return nil, err
	}
	return tariffs, nil
}

func (r *repo) FindByUtilityAndCustomerType(ctx context.Context, db *gorm.DB, utilityTypeID snowflake.ID, customerType customerdomain.CustomerType) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).Raw(
		`SELECT id, utility_type_id, customer_type, rate_per_unit, fixed_charge, created_at, updated_at
		 FROM tariffs
		 WHERE utility_type_id = ? AND customer_type = ?
		 ORDER BY id ASC
		 LIMIT 1`,
		utilityTypeID,
		customerType,
	).Scan(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

type utilityTypeRepo struct{}

func ProvideUtilityTypes() domain.UtilityTypeRepository {
	return &utilityTypeRepo{}
}

func (r *utilityTypeRepo) Insert(ctx context.Context, db *gorm.DB, utilityType *domain.UtilityType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO utility_types (id, type_name, unit_of_measure, created_at) VALUES (?, ?, ?, ?)`,
		utilityType.ID,
		utilityType.TypeName,
		utilityType.UnitOfMeasure,
		utilityType.CreatedAt,
	).Error
}

func (r *utilityTypeRepo) Update(ctx context.Context, db *gorm.DB, utilityType *domain.UtilityType) error {
	return db.WithContext(ctx).Exec(
		`UPDATE utility_types SET type_name = ?, unit_of_measure = ? WHERE id = ?`,
		utilityType.TypeName,
		utilityType.UnitOfMeasure,
		utilityType.ID,
	).Error
}

func (r *utilityTypeRepo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM utility_types WHERE id = ?`, id).Error
}

func (r *utilityTypeRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.UtilityType, error) {
	return r.findOne(ctx, db, `WHERE id = ?`, id)
}

func (r *utilityTypeRepo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.UtilityType, error) {
	return r.findOne(ctx, db, `WHERE type_name = ?`, name)
}

func (r *utilityTypeRepo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.UtilityType, error) {
	var utilityType domain.UtilityType
	err := db.WithContext(ctx).Raw(
		`SELECT id, type_name, unit_of_measure, created_at FROM utility_types `+where,
		arg,
	).Scan(&utilityType).Error
	if err != nil {
		return nil, err
	}
	if utilityType.ID == 0 {
		return nil, nil
	}
	return &utilityType, nil
}

func (r *utilityTypeRepo) List(ctx context.Context, db *gorm.DB) ([]domain.UtilityType, error) {
	var types []domain.UtilityType
	err := db.WithContext(ctx).Raw(
		`SELECT id, type_name, unit_of_measure, created_at FROM utility_types ORDER BY type_name ASC`,
	).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *utilityTypeRepo) CountReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT (SELECT COUNT(*) FROM meters WHERE utility_type_id = ?) + (SELECT COUNT(*) FROM tariffs WHERE utility_type_id = ?)`,
		id,
		id,
	).Scan(&count).Error
	return count, err
}
