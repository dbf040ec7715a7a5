package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&customerdomain.Customer{},
		&tariffdomain.UtilityType{},
		&meterdomain.Meter{},
		&tariffdomain.Tariff{},
		&readingdomain.Reading{},
		&billingdomain.Bill{},
		&paymentdomain.Payment{},
	}
}

// AutoMigrate builds the schema from the models; used for sqlite and mysql
// where the embedded SQL does not apply.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
