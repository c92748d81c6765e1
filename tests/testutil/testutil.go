// Package testutil opens throwaway databases, seeds catalog rows and drives
// the gin router as a manager or a driver.
package testutil

import (
	"fmt"
	"testing"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/dairy/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewSQLiteDB opens a private in-memory sqlite database with every table
// migrated. It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// the in-memory database lives as long as its only connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "migrate sqlite")
	return db
}

var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// StableID derives the same UUID from the same seed on every run
func StableID(seed string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(seed))
}

func Manager() appshared.Actor {
	return appshared.Actor{UserID: StableID("manager"), Role: appshared.RoleManager}
}

// Driver returns a driver whose ID is derived from name
func Driver(name string) appshared.Actor {
	return appshared.Actor{UserID: StableID("driver-" + name), Role: appshared.RoleDriver}
}

// ActorHeaders returns the gateway headers identifying actor
func ActorHeaders(actor appshared.Actor) map[string]string {
	return map[string]string{
		middleware.UserIDHeader:   actor.UserID.String(),
		middleware.UserRoleHeader: string(actor.Role),
	}
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
