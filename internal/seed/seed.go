package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	"github.com/smallbiznis/utilibill/internal/auth/password"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

// DefaultUtilityTypes is the catalogue every installation starts with.
var DefaultUtilityTypes = []tariffdomain.UtilityType{
	{TypeName: "Electricity", UnitOfMeasure: "kWh"},
	{TypeName: "Water", UnitOfMeasure: "m³"},
	{TypeName: "Gas", UnitOfMeasure: "m³"},
}

// EnsureUtilityTypes inserts the default utility types that are missing.
func EnsureUtilityTypes(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range DefaultUtilityTypes {
			var existing tariffdomain.UtilityType
			err := tx.WithContext(ctx).Where("type_name = ?", def.TypeName).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := tariffdomain.UtilityType{
				ID:            node.Generate(),
				TypeName:      def.TypeName,
				UnitOfMeasure: def.UnitOfMeasure,
				CreatedAt:     time.Now().UTC(),
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureDefaultAdmin creates the bootstrap administrator when no user with
// that username exists. An existing account is left untouched.
func EnsureDefaultAdmin(db *gorm.DB, username, plain string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = defaultAdminUsername
	}
	if plain == "" {
		plain = defaultAdminPassword
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("username = ?", username).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(plain)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Username:     username,
			PasswordHash: hashed,
			Role:         authdomain.RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
