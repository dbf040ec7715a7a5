package seed

import (
	"testing"

	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	"github.com/smallbiznis/utilibill/internal/auth/password"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"github.com/smallbiznis/utilibill/pkg/db"
	"github.com/stretchr/testify/require"
)

func TestEnsureUtilityTypesIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&tariffdomain.UtilityType{}))

	require.NoError(t, EnsureUtilityTypes(conn))
	require.NoError(t, EnsureUtilityTypes(conn))

	var types []tariffdomain.UtilityType
	require.NoError(t, conn.Order("type_name").Find(&types).Error)
	require.Len(t, types, 3)
	require.Equal(t, "Electricity", types[0].TypeName)
	require.Equal(t, "kWh", types[0].UnitOfMeasure)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}))

	require.NoError(t, EnsureDefaultAdmin(conn, " root ", "s3cret-pass"))

	var user authdomain.User
	require.NoError(t, conn.Where("username = ?", "root").First(&user).Error)
	require.Equal(t, authdomain.RoleAdmin, user.Role)
	require.True(t, password.Verify("s3cret-pass", user.PasswordHash))

	// a second run must not reset the password
	require.NoError(t, EnsureDefaultAdmin(conn, "root", "other-pass"))
	var count int64
	require.NoError(t, conn.Model(&authdomain.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.NoError(t, conn.Where("username = ?", "root").First(&user).Error)
	require.True(t, password.Verify("s3cret-pass", user.PasswordHash))
}
