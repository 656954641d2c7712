package repository

import (
	"go-lending-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BorrowerRepository interface {
	Create(borrower *model.Borrower) error
	FindAll() ([]model.Borrower, error)
	FindByID(id uuid.UUID) (*model.Borrower, error)
	Update(borrower *model.Borrower) error
	Delete(id uuid.UUID) error
	Count() (int64, error)
}

type borrowerRepo struct {
	db *gorm.DB
}

func NewBorrowerRepo(db *gorm.DB) BorrowerRepository {
	return &borrowerRepo{db}
}

func (r *borrowerRepo) Create(borrower *model.Borrower) error {
	return r.db.Create(borrower).Error
}

func (r *borrowerRepo) FindAll() ([]model.Borrower, error) {
	var borrowers []model.Borrower
	err := r.db.Order("name ASC").Find(&borrowers).Error
	return borrowers, err
}

func (r *borrowerRepo) FindByID(id uuid.UUID) (*model.Borrower, error) {
	var borrower model.Borrower
	err := r.db.First(&borrower, "id = ?", id).Error
	return &borrower, err
}

func (r *borrowerRepo) Update(borrower *model.Borrower) error {
	return r.db.Save(borrower).Error
}

func (r *borrowerRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Borrower{}, "id = ?", id).Error
}

func (r *borrowerRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Borrower{}).Count(&count).Error
	return count, err
}
