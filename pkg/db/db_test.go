package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestForUpdateByDialect(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)
	require.Equal(t, "", ForUpdate(conn))
	require.Equal(t, "", ForUpdate(nil))
}

func TestNewTestIsolatesDatabases(t *testing.T) {
	first, err := NewTest()
	require.NoError(t, err)
	second, err := NewTest()
	require.NoError(t, err)

	require.NoError(t, first.Exec("CREATE TABLE marker (id INTEGER PRIMARY KEY)").Error)
	var count int64
	require.NoError(t, second.Raw("SELECT COUNT(*) FROM sqlite_master WHERE name = 'marker'").Scan(&count).Error)
	require.Zero(t, count)
}

func TestErrorClassification(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY, code TEXT UNIQUE)").Error)
	require.NoError(t, conn.Exec("INSERT INTO things (id, code) VALUES (1, 'a')").Error)
	dupErr := conn.Exec("INSERT INTO things (id, code) VALUES (2, 'a')").Error
	require.True(t, IsDuplicateKeyErr(dupErr))

	require.True(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsDuplicateKeyErr(fmt.Errorf("insert meter: %w", gorm.ErrDuplicatedKey)))
	require.True(t, IsForeignKeyErr(&pgconn.PgError{Code: "23503"}))
	require.True(t, IsLockTimeoutErr(&pgconn.PgError{Code: "55P03"}))
	require.False(t, IsDuplicateKeyErr(errors.New("boom")))
	require.False(t, IsForeignKeyErr(nil))
}
