// Package integration runs the catalog against a real PostgreSQL started with testcontainers.
// The tests are skipped with -short.
package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// container is started once per package run and migrated once
var container struct {
	once sync.Once
	pg   *tcpostgres.PostgresContainer
	dsn  string
	err  error
}

// TestMain terminates the package container after every test ran
func TestMain(m *testing.M) {
	code := m.Run()
	if container.pg != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_ = container.pg.Terminate(ctx)
		cancel()
	}
	os.Exit(code)
}

// TestDB is an empty, migrated catalog schema owned by one test
type TestDB struct {
	DB  *gorm.DB
	DSN string
}

// NewTestDB returns a connection to the package database with every catalog table emptied.
// Tests using it must not run in parallel.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped with -short")
	}

	container.once.Do(startContainer)
	require.NoError(t, container.err, "start postgres container")

	db := open(t, container.dsn)
	truncateCatalog(t, db)
	return &TestDB{DB: db, DSN: container.dsn}
}

func startContainer() {
	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("catalog_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		container.err = err
		return
	}
	container.pg = pg

	if container.dsn, err = pg.ConnectionString(ctx, "sslmode=disable"); err != nil {
		container.err = err
		return
	}
	container.err = migrateSchema(container.dsn)
}

// migrateSchema applies the embedded migrations through the same migrator cmd/migrate uses
func migrateSchema(dsn string) error {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, nil)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func open(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(level)})
	require.NoError(t, err, "connect to postgres")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// truncateCatalog empties every table except the migration bookkeeping
func truncateCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	var tables []string
	require.NoError(t, db.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'
	`).Scan(&tables).Error)
	if len(tables) == 0 {
		return
	}

	quoted := make([]string, len(tables))
	for i, table := range tables {
		quoted[i] = fmt.Sprintf("%q", table)
	}
	require.NoError(t, db.Exec("TRUNCATE TABLE "+strings.Join(quoted, ", ")+" RESTART IDENTITY CASCADE").Error)
}
