package repository

import (
	"go-lending-ws/internal/apperr"
	"go-lending-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository interface {
	Create(item *model.Item) error
	FindAll() ([]model.Item, error)
	FindByID(id uuid.UUID) (*model.Item, error)
	FindByIDs(ids []uuid.UUID) ([]model.Item, error)
	Update(item *model.Item) error
	Delete(id uuid.UUID) error
	Count() (int64, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Item, error)
	AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (*model.Item, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

// lockForUpdate adds a row lock on dialects that support it. SQLite has a
// single writer anyway, and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *itemRepo) Create(item *model.Item) error {
	return r.db.Create(item).Error
}

func (r *itemRepo) FindAll() ([]model.Item, error) {
	var items []model.Item
	err := r.db.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) FindByID(id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.First(&item, "id = ?", id).Error
	return &item, err
}

func (r *itemRepo) FindByIDs(ids []uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	err := r.db.Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *itemRepo) Update(item *model.Item) error {
	return r.db.Save(item).Error
}

func (r *itemRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Item{}, "id = ?", id).Error
}

func (r *itemRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Item{}).Count(&count).Error
	return count, err
}

// LockByID loads the item inside tx holding a row lock until commit.
func (r *itemRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := lockForUpdate(tx).First(&item, "id = ?", id).Error
	return &item, err
}

// AdjustStock applies a relative stock change inside tx. The row is locked,
// the resulting stock is checked, and the write only happens when it stays
// non-negative, so the adjustment is atomic with respect to other callers.
func (r *itemRepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (*model.Item, error) {
	item, err := r.LockByID(tx, id)
	if err != nil {
		return nil, err
	}

	newStock := item.Stock + delta
	if newStock < 0 {
		return nil, &apperr.InsufficientStockError{
			ItemName:  item.Name,
			Available: item.Stock,
			Requested: -delta,
		}
	}

	if err := tx.Model(&model.Item{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      newStock,
			"updated_by": updatedBy,
		}).Error; err != nil {
		return nil, err
	}

	item.Stock = newStock
	return item, nil
}
