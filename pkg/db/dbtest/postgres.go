package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/migrate"
)

// PostgresDSNEnv names the database used by tests that need real row locks.
const PostgresDSNEnv = "SERVIZAS_TEST_POSTGRES_DSN"

// OpenPostgres migrates a throwaway schema on the database named by
// SERVIZAS_TEST_POSTGRES_DSN and drops it when the test ends. The test is
// skipped when the variable is unset.
func OpenPostgres(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv(PostgresDSNEnv))
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()
	schema := "servizas_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	admin, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverPostgres, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := admin.DB().Exec("CREATE SCHEMA " + schema).Error; err != nil {
		_ = admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_ = admin.DB().Exec("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Error
		_ = admin.Close()
	})

	client, err := db.New(ctx, config.DBConfig{
		Driver:       config.DBDriverPostgres,
		DSN:          withSearchPath(dsn, schema),
		MaxOpenConns: 20,
	}, nil)
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := migrate.Run(ctx, sqlDB, "", "up"); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	return client, client.DB()
}

func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}
