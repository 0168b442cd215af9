package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestValidateEmbedded(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	bad := fstest.MapFS{
		"migrations/001_bad.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.Error(t, validateFS(bad, "migrations"))

	missingDown := fstest.MapFS{
		"migrations/20260101000000_x.sql": {Data: []byte("-- +goose Up\n")},
	}
	require.Error(t, validateFS(missingDown, "migrations"))
}

func TestDialect(t *testing.T) {
	d, err := Dialect(config.DBDriverPostgres)
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	d, err = Dialect(config.DBDriverSQLite)
	require.NoError(t, err)
	require.Equal(t, "sqlite3", d)

	_, err = Dialect("mysql")
	require.Error(t, err)
}

func TestRunUpCreatesSlotTable(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), sqlDB, config.DBDriverSQLite, "up"))
	require.True(t, conn.Migrator().HasTable("client_slots"))
}
