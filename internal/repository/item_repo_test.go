package repository

import (
	"testing"

	"go-lending-ws/internal/apperr"
	"go-lending-ws/internal/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	// In-memory sqlite gives every connection its own database
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	assert.NoError(t, db.AutoMigrate(
		&model.Item{}, &model.Borrower{}, &model.Loan{}, &model.LoanLine{},
		&model.User{}, &model.Setting{},
	))
	return db
}

func TestAdjustStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	item := &model.Item{Name: "Proyektor", Category: "Elektronik", Stock: 3}
	assert.NoError(t, repo.Create(item))

	err := db.Transaction(func(tx *gorm.DB) error {
		updated, err := repo.AdjustStock(tx, item.ID, -2, "tester")
		assert.NoError(t, err)
		assert.Equal(t, 1, updated.Stock)
		return nil
	})
	assert.NoError(t, err)

	reloaded, err := repo.FindByID(item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	item := &model.Item{Name: "Laptop", Stock: 1}
	assert.NoError(t, repo.Create(item))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.AdjustStock(tx, item.ID, -2, "tester")
		return err
	})

	var stockErr *apperr.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Laptop", stockErr.ItemName)
	assert.Equal(t, 1, stockErr.Available)

	reloaded, err := repo.FindByID(item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
}

func TestAdjustStockIncrement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	item := &model.Item{Name: "Kabel HDMI", Stock: 0}
	assert.NoError(t, repo.Create(item))

	err := db.Transaction(func(tx *gorm.DB) error {
		updated, err := repo.AdjustStock(tx, item.ID, 4, "tester")
		assert.NoError(t, err)
		assert.Equal(t, 4, updated.Stock)
		return nil
	})
	assert.NoError(t, err)
}
