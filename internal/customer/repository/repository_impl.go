package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, name, address, phone, email, customer_type, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.Name,
		customer.Address,
		customer.Phone,
		customer.Email,
		customer.CustomerType,
		customer.Metadata,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET name = ?, address = ?, phone = ?, email = ?, customer_type = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		customer.Name,
		customer.Address,
		customer.Phone,
		customer.Email,
		customer.CustomerType,
		customer.Metadata,
		customer.UpdatedAt,
		customer.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM customers WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, address, phone, email, customer_type, metadata, created_at, updated_at
		 FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		stmt = stmt.Where("(LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR phone LIKE ?)", like, like, like)
	}
	if filter.CustomerType != "" {
		stmt = stmt.Where("customer_type = ?", filter.CustomerType)
	}
	stmt, err := pagination.Apply(stmt, "id", page)
	if err != nil {
		return nil, err
	}
	if err := stmt.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) CountMeters(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM meters WHERE customer_id = ?`, id).Scan(&count).Error
	return count, err
}
