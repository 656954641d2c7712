package service

import (
	"errors"
	"fmt"
	"time"

	"go-lending-ws/internal/apperr"
	"go-lending-ws/internal/model"
	"go-lending-ws/internal/repository"
	"go-lending-ws/internal/ws"
	"go-lending-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// How long a ledger operation waits for an item lock before giving up.
const defaultLockWait = 3 * time.Second

// CheckoutLine is one requested item position of a checkout.
type CheckoutLine struct {
	ItemID       uuid.UUID `json:"item_id" validate:"uuid_required"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
	SerialNumber string    `json:"serial_number"`
}

// CheckoutRequest creates a loan. DueDate is optional; when absent the
// configured default loan period is added to the borrow date.
type CheckoutRequest struct {
	BorrowerID uuid.UUID      `json:"borrower_id" validate:"uuid_required"`
	Lines      []CheckoutLine `json:"items" validate:"required,min=1,dive"`
	DueDate    *time.Time     `json:"due_date"`
	Purpose    string         `json:"purpose"`
	Notes      string         `json:"notes"`
}

type LedgerService interface {
	Checkout(req *CheckoutRequest, actor string) (*model.LoanResponse, error)
	Return(loanID uuid.UUID, actor string) (*model.LoanResponse, error)
	GetLoan(id uuid.UUID) (*model.LoanResponse, error)
	ListLoans(filter string) ([]model.LoanResponse, error)
}

type ledgerService struct {
	itemRepo     repository.ItemRepository
	borrowerRepo repository.BorrowerRepository
	loanRepo     repository.LoanRepository
	settingRepo  repository.SettingRepository
	db           *gorm.DB
	wsHub        *ws.Hub
	locks        *itemLocks
	lockWait     time.Duration
}

func NewLedgerService(
	itemRepo repository.ItemRepository,
	borrowerRepo repository.BorrowerRepository,
	loanRepo repository.LoanRepository,
	settingRepo repository.SettingRepository,
	db *gorm.DB,
	hub *ws.Hub,
) LedgerService {
	return &ledgerService{
		itemRepo:     itemRepo,
		borrowerRepo: borrowerRepo,
		loanRepo:     loanRepo,
		settingRepo:  settingRepo,
		db:           db,
		wsHub:        hub,
		locks:        newItemLocks(),
		lockWait:     defaultLockWait,
	}
}

// Checkout creates a loan and reserves stock for every line. The whole
// operation runs under per-item locks and a single DB transaction: either
// the loan and all stock decrements land together, or nothing does.
func (s *ledgerService) Checkout(req *CheckoutRequest, actor string) (*model.LoanResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Validation("%s", validator.FirstErrorMessage(errs))
	}

	setting, err := s.settingRepo.Get()
	if err != nil {
		return nil, err
	}
	if len(req.Lines) > setting.MaxLoanItems {
		return nil, apperr.Validation("maksimal %d jenis barang per peminjaman", setting.MaxLoanItems)
	}

	if _, err := s.borrowerRepo.FindByID(req.BorrowerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("peminjam %s tidak terdaftar", req.BorrowerID)
		}
		return nil, err
	}

	itemIDs := make([]uuid.UUID, len(req.Lines))
	for i, line := range req.Lines {
		itemIDs[i] = line.ItemID
	}
	release, err := s.locks.acquire(itemIDs, s.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	dueDate := now.AddDate(0, 0, setting.DefaultLoanDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	// Date-only comparison: a due date of today is still acceptable.
	if model.IsOverdueAt(dueDate, now) {
		return nil, apperr.Validation("tanggal jatuh tempo tidak boleh sebelum tanggal pinjam")
	}

	var loan *model.Loan
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Check every line against locked stock before writing anything.
		for _, line := range req.Lines {
			item, err := s.itemRepo.LockByID(tx, line.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("barang %s tidak terdaftar", line.ItemID)
				}
				return err
			}
			if line.Quantity > item.Stock {
				return &apperr.InsufficientStockError{
					ItemName:  item.Name,
					Available: item.Stock,
					Requested: line.Quantity,
				}
			}
		}

		// Loan record first, stock movements after; the transaction makes
		// the pair atomic either way.
		lines := make([]model.LoanLine, len(req.Lines))
		for i, line := range req.Lines {
			lines[i] = model.LoanLine{
				ItemID:       line.ItemID,
				Quantity:     line.Quantity,
				SerialNumber: line.SerialNumber,
			}
		}
		loan = &model.Loan{
			BorrowerID: req.BorrowerID,
			Lines:      lines,
			BorrowDate: now,
			DueDate:    dueDate,
			Status:     model.StatusOnLoan,
			Purpose:    req.Purpose,
			Notes:      req.Notes,
		}
		loan.CreatedBy = actor
		loan.UpdatedBy = actor
		if err := s.loanRepo.Create(tx, loan); err != nil {
			return err
		}

		for _, line := range req.Lines {
			if _, err := s.itemRepo.AdjustStock(tx, line.ItemID, -line.Quantity, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}
	resp := created.ToResponse(now)

	go s.broadcastLoanEvent("loan_created", created, actor)

	return &resp, nil
}

// Return closes a loan and releases its stock back to inventory. Returning
// a loan that is already closed fails without touching stock.
func (s *ledgerService) Return(loanID uuid.UUID, actor string) (*model.LoanResponse, error) {
	existing, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("peminjaman", loanID.String())
		}
		return nil, err
	}

	itemIDs := make([]uuid.UUID, len(existing.Lines))
	for i, line := range existing.Lines {
		itemIDs[i] = line.ItemID
	}
	release, err := s.locks.acquire(itemIDs, s.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		loan, err := s.loanRepo.LockByID(tx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("peminjaman", loanID.String())
			}
			return err
		}
		if loan.Status != model.StatusOnLoan {
			return &apperr.AlreadyReturnedError{LoanID: loanID.String()}
		}

		loan.Status = model.StatusReturned
		loan.ReturnDate = &now
		loan.UpdatedBy = actor
		if err := s.loanRepo.Update(tx, loan); err != nil {
			return err
		}

		for _, line := range loan.Lines {
			if _, err := s.itemRepo.AdjustStock(tx, line.ItemID, line.Quantity, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	returned, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		return nil, err
	}
	resp := returned.ToResponse(now)

	go s.broadcastLoanEvent("loan_returned", returned, actor)

	return &resp, nil
}

func (s *ledgerService) GetLoan(id uuid.UUID) (*model.LoanResponse, error) {
	loan, err := s.loanRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("peminjaman", id.String())
		}
		return nil, err
	}
	resp := loan.ToResponse(time.Now())
	return &resp, nil
}

// ListLoans returns the joined loan view, newest first. Filter accepts the
// stored statuses plus the derived states "terlambat" and
// "segera_jatuh_tempo"; empty means everything.
func (s *ledgerService) ListLoans(filter string) ([]model.LoanResponse, error) {
	loans, err := s.loanRepo.FindAll()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	responses := make([]model.LoanResponse, 0, len(loans))
	for i := range loans {
		resp := loans[i].ToResponse(now)
		if filter != "" && !matchesFilter(&resp, filter) {
			continue
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func matchesFilter(resp *model.LoanResponse, filter string) bool {
	switch filter {
	case string(model.StatusOnLoan):
		return resp.Status == model.StatusOnLoan
	case string(model.StatusReturned):
		return resp.Status == model.StatusReturned
	case string(model.DisplayOverdue), string(model.DisplayDueSoon):
		return string(resp.DisplayStatus.State) == filter
	default:
		return false
	}
}

func (s *ledgerService) broadcastLoanEvent(event string, loan *model.Loan, actor string) {
	borrowerName := ""
	if loan.Borrower != nil {
		borrowerName = loan.Borrower.Name
	}
	items := make([]map[string]interface{}, 0, len(loan.Lines))
	for _, line := range loan.Lines {
		name := ""
		if line.Item != nil {
			name = line.Item.Name
		}
		items = append(items, map[string]interface{}{
			"item_id":  line.ItemID,
			"name":     name,
			"quantity": line.Quantity,
		})
	}
	s.wsHub.BroadcastEvent(event, map[string]interface{}{
		"loan_id":  loan.ID,
		"borrower": borrowerName,
		"items":    items,
		"status":   loan.Status,
		"actor":    actor,
		"message":  fmt.Sprintf("%s: peminjaman %s oleh %s", event, loan.ID, borrowerName),
	})
}
