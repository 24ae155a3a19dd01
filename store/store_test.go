package store

import (
	"fmt"
	"testing"

	"meal-delivery-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens an isolated in-memory database per test. The named shared
// cache keeps the schema visible across pooled connections.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CustomerProfile{},
		&models.RestaurantProfile{},
		&models.DeliveryProfile{},
		&models.Meal{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
		&models.EmailOTP{},
	))
	return db
}
