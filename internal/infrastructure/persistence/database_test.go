package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dairy/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func mockDialector(t *testing.T) (gorm.Dialector, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}), mock
}

func poolConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 2, ConnMaxLifetime: 30, ConnMaxIdleTime: 5}
}

func TestOpenSizesPoolAndPings(t *testing.T) {
	dialector, mock := mockDialector(t)
	mock.ExpectPing()

	db, err := open(dialector, poolConfig(), WithoutPreparedStatements())
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
	assert.False(t, db.DB.Config.PrepareStmt)
	assert.True(t, db.DB.Config.TranslateError)
	assert.Equal(t, "UTC", db.DB.Config.NowFunc().Location().String())

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenFailsWhenPingFails(t *testing.T) {
	dialector, mock := mockDialector(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	_, err := open(dialector, poolConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabasePing(t *testing.T) {
	dialector, mock := mockDialector(t)
	mock.ExpectPing()
	db, err := open(dialector, poolConfig())
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("server closed the connection"))
	assert.ErrorContains(t, db.Ping(context.Background()), "server closed the connection")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLoggerOption(t *testing.T) {
	cfg := &gorm.Config{}
	l := gormlogger.Default
	WithLogger(l)(cfg)
	assert.Equal(t, l, cfg.Logger)
}
