package service

import (
	"errors"

	"go-lending-ws/internal/apperr"
	"go-lending-ws/internal/model"
	"go-lending-ws/internal/repository"
	"go-lending-ws/internal/ws"
	"go-lending-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService manages the item and borrower masters. Stock edits made
// here are direct corrections; reservations always go through the ledger.
type CatalogService interface {
	CreateItem(req *model.Item, actor string) error
	UpdateItem(id uuid.UUID, req *model.Item, actor string) (*model.Item, error)
	DeleteItem(id uuid.UUID, actor string) error
	GetItem(id uuid.UUID) (*model.Item, error)
	GetAllItems() ([]model.Item, error)

	CreateBorrower(req *model.Borrower, actor string) error
	UpdateBorrower(id uuid.UUID, req *model.Borrower, actor string) (*model.Borrower, error)
	DeleteBorrower(id uuid.UUID, actor string) error
	GetBorrower(id uuid.UUID) (*model.Borrower, error)
	GetAllBorrowers() ([]model.Borrower, error)
}

type catalogService struct {
	itemRepo     repository.ItemRepository
	borrowerRepo repository.BorrowerRepository
	loanRepo     repository.LoanRepository
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewCatalogService(
	itemRepo repository.ItemRepository,
	borrowerRepo repository.BorrowerRepository,
	loanRepo repository.LoanRepository,
	db *gorm.DB,
	hub *ws.Hub,
) CatalogService {
	return &catalogService{
		itemRepo:     itemRepo,
		borrowerRepo: borrowerRepo,
		loanRepo:     loanRepo,
		db:           db,
		wsHub:        hub,
	}
}

func validationError(errs []*validator.ErrorResponse) error {
	return apperr.Validation("%s", validator.FirstErrorMessage(errs))
}

func (s *catalogService) CreateItem(req *model.Item, actor string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}
	if req.Condition == "" {
		req.Condition = model.ConditionGood
	}
	req.CreatedBy = actor
	req.UpdatedBy = actor

	if err := s.itemRepo.Create(req); err != nil {
		return err
	}

	go s.wsHub.BroadcastEvent("item_created", req)
	return nil
}

// UpdateItem replaces the editable fields, stock included. Runs in a
// transaction with the row locked so a concurrent checkout cannot
// interleave with the manual stock correction.
func (s *catalogService) UpdateItem(id uuid.UUID, req *model.Item, actor string) (*model.Item, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	if req.Stock < 0 {
		return nil, apperr.Validation("stok tidak boleh negatif")
	}

	var updated *model.Item
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.itemRepo.LockByID(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("barang", id.String())
			}
			return err
		}

		existing.Name = req.Name
		existing.Category = req.Category
		existing.Stock = req.Stock
		existing.Condition = req.Condition
		existing.Description = req.Description
		existing.Icon = req.Icon
		existing.UpdatedBy = actor

		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.wsHub.BroadcastEvent("item_updated", updated)
	return updated, nil
}

func (s *catalogService) DeleteItem(id uuid.UUID, actor string) error {
	if _, err := s.itemRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("barang", id.String())
		}
		return err
	}

	open, err := s.loanRepo.HasOpenLoanForItem(id)
	if err != nil {
		return err
	}
	if open {
		return apperr.Validation("barang masih terikat peminjaman aktif")
	}

	if err := s.itemRepo.Delete(id); err != nil {
		return err
	}
	go s.wsHub.BroadcastEvent("item_deleted", map[string]interface{}{"id": id, "actor": actor})
	return nil
}

func (s *catalogService) GetItem(id uuid.UUID) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("barang", id.String())
		}
		return nil, err
	}
	return item, nil
}

func (s *catalogService) GetAllItems() ([]model.Item, error) {
	return s.itemRepo.FindAll()
}

func (s *catalogService) CreateBorrower(req *model.Borrower, actor string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}
	req.CreatedBy = actor
	req.UpdatedBy = actor
	return s.borrowerRepo.Create(req)
}

func (s *catalogService) UpdateBorrower(id uuid.UUID, req *model.Borrower, actor string) (*model.Borrower, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	existing, err := s.borrowerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("peminjam", id.String())
		}
		return nil, err
	}

	existing.Name = req.Name
	existing.NIP = req.NIP
	existing.OfficerID = req.OfficerID
	existing.Phone = req.Phone
	existing.Gender = req.Gender
	existing.UpdatedBy = actor

	if err := s.borrowerRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *catalogService) DeleteBorrower(id uuid.UUID, actor string) error {
	if _, err := s.borrowerRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("peminjam", id.String())
		}
		return err
	}

	open, err := s.loanRepo.HasOpenLoanForBorrower(id)
	if err != nil {
		return err
	}
	if open {
		return apperr.Validation("peminjam masih memiliki peminjaman aktif")
	}

	return s.borrowerRepo.Delete(id)
}

func (s *catalogService) GetBorrower(id uuid.UUID) (*model.Borrower, error) {
	borrower, err := s.borrowerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("peminjam", id.String())
		}
		return nil, err
	}
	return borrower, nil
}

func (s *catalogService) GetAllBorrowers() ([]model.Borrower, error) {
	return s.borrowerRepo.FindAll()
}
