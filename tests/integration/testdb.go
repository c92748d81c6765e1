//go:build integration

// Package integration runs the repositories and services against a real
// PostgreSQL started with testcontainers. Run with -tags integration.
package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dairy/backend/internal/infrastructure/logger"
	"github.com/dairy/backend/internal/infrastructure/migration"
	"github.com/dairy/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// postgresDSN is set by TestMain once the container is up and migrated
var postgresDSN string

// startPostgres runs a migrated PostgreSQL 16 container. The returned
// function terminates it.
func startPostgres(ctx context.Context) (func(), error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dairy_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		stop()
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	if err := migrate(dsn); err != nil {
		stop()
		return nil, err
	}
	postgresDSN = dsn
	return stop, nil
}

func migrate(dsn string) error {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// TestDB is a connection to the shared container whose tables were emptied
// for the calling test
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB connects the way the server does, with the zap GORM logger
// writing through t, and truncates every application table.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if postgresDSN == "" {
		t.Skip("postgres container not running")
	}

	db, err := gorm.Open(gormpostgres.Open(postgresDSN), &gorm.Config{
		Logger:         logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "connect postgres")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// the concurrency tests need enough connections to contend for row locks
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var tables []string
	require.NoError(t, db.Raw(`SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`).Scan(&tables).Error)
	if len(tables) > 0 {
		require.NoError(t, db.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE").Error)
	}
	return &TestDB{DB: db}
}
