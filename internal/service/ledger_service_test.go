package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go-lending-ws/internal/apperr"
	"go-lending-ws/internal/model"
	"go-lending-ws/internal/repository"
	"go-lending-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerEnv struct {
	db           *gorm.DB
	itemRepo     repository.ItemRepository
	borrowerRepo repository.BorrowerRepository
	loanRepo     repository.LoanRepository
	ledger       *ledgerService
}

func setupLedger(t *testing.T) *ledgerEnv {
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

	itemRepo := repository.NewItemRepo(db)
	borrowerRepo := repository.NewBorrowerRepo(db)
	loanRepo := repository.NewLoanRepo(db)
	settingRepo := repository.NewSettingRepo(db)
	assert.NoError(t, settingRepo.SeedDefaults())

	hub := ws.NewHub()
	go hub.Run()

	svc := NewLedgerService(itemRepo, borrowerRepo, loanRepo, settingRepo, db, hub).(*ledgerService)

	return &ledgerEnv{
		db:           db,
		itemRepo:     itemRepo,
		borrowerRepo: borrowerRepo,
		loanRepo:     loanRepo,
		ledger:       svc,
	}
}

func (e *ledgerEnv) createItem(t *testing.T, name string, stock int) *model.Item {
	item := &model.Item{Name: name, Stock: stock}
	assert.NoError(t, e.itemRepo.Create(item))
	return item
}

func (e *ledgerEnv) createBorrower(t *testing.T, name string) *model.Borrower {
	borrower := &model.Borrower{Name: name}
	assert.NoError(t, e.borrowerRepo.Create(borrower))
	return borrower
}

func (e *ledgerEnv) stock(t *testing.T, itemID uuid.UUID) int {
	item, err := e.itemRepo.FindByID(itemID)
	assert.NoError(t, err)
	return item.Stock
}

// reserved sums quantities of open loan lines referencing the item.
func (e *ledgerEnv) reserved(t *testing.T, itemID uuid.UUID) int {
	var total int64
	err := e.db.Model(&model.LoanLine{}).
		Joins("JOIN loans ON loans.id = loan_lines.loan_id").
		Where("loan_lines.item_id = ? AND loans.status = ?", itemID, model.StatusOnLoan).
		Select("COALESCE(SUM(loan_lines.quantity), 0)").
		Scan(&total).Error
	assert.NoError(t, err)
	return int(total)
}

func TestCheckoutDecrementsStock(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	loan, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 3}},
		Purpose:    "Rapat guru",
	}, "tester")
	assert.NoError(t, err)

	assert.Equal(t, model.StatusOnLoan, loan.Status)
	assert.Equal(t, borrower.ID, loan.BorrowerID)
	assert.Len(t, loan.Lines, 1)
	assert.NotEqual(t, uuid.Nil, loan.ID)
	assert.Equal(t, 0, env.stock(t, item.ID))

	// Default loan period from settings (7 days)
	expectedDue := time.Now().AddDate(0, 0, 7)
	assert.WithinDuration(t, expectedDue, loan.DueDate, time.Minute)
	assert.Equal(t, model.DisplayOnLoan, loan.DisplayStatus.State)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	_, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 3}},
	}, "tester")
	assert.NoError(t, err)

	_, err = env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
	}, "tester")

	var stockErr *apperr.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Proyektor", stockErr.ItemName)
	assert.Equal(t, 0, stockErr.Available)
	assert.Equal(t, "Stok Proyektor tidak mencukupi (tersedia: 0)", err.Error())
	assert.Equal(t, 0, env.stock(t, item.ID))
}

func TestCheckoutValidation(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	tests := []struct {
		name string
		req  *CheckoutRequest
	}{
		{
			name: "Tanpa baris barang",
			req:  &CheckoutRequest{BorrowerID: borrower.ID},
		},
		{
			name: "Jumlah nol",
			req: &CheckoutRequest{
				BorrowerID: borrower.ID,
				Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 0}},
			},
		},
		{
			name: "Peminjam tidak terdaftar",
			req: &CheckoutRequest{
				BorrowerID: uuid.New(),
				Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
			},
		},
		{
			name: "Barang tidak terdaftar",
			req: &CheckoutRequest{
				BorrowerID: borrower.ID,
				Lines:      []CheckoutLine{{ItemID: uuid.New(), Quantity: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.Checkout(tt.req, "tester")
			var validationErr *apperr.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}

	// Nothing was reserved by the failed requests
	assert.Equal(t, 3, env.stock(t, item.ID))
}

func TestCheckoutRespectsMaxLoanItems(t *testing.T) {
	env := setupLedger(t)
	borrower := env.createBorrower(t, "Bu Sari")
	lines := make([]CheckoutLine, 6)
	for i := range lines {
		item := env.createItem(t, "Barang", 1)
		lines[i] = CheckoutLine{ItemID: item.ID, Quantity: 1}
	}

	_, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      lines,
	}, "tester")

	var validationErr *apperr.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCheckoutRollsBackOnFailedLine(t *testing.T) {
	env := setupLedger(t)
	itemA := env.createItem(t, "Proyektor", 5)
	itemB := env.createItem(t, "Laptop", 1)
	borrower := env.createBorrower(t, "Bu Sari")

	_, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines: []CheckoutLine{
			{ItemID: itemA.ID, Quantity: 2},
			{ItemID: itemB.ID, Quantity: 3}, // over stock
		},
	}, "tester")

	var stockErr *apperr.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Laptop", stockErr.ItemName)

	// Neither the loan nor the first line's decrement survived
	assert.Equal(t, 5, env.stock(t, itemA.ID))
	assert.Equal(t, 1, env.stock(t, itemB.ID))
	var loanCount int64
	assert.NoError(t, env.db.Model(&model.Loan{}).Count(&loanCount).Error)
	assert.Equal(t, int64(0), loanCount)
}

func TestReturnRestoresStock(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	loan, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 2}},
	}, "tester")
	assert.NoError(t, err)
	assert.Equal(t, 1, env.stock(t, item.ID))

	returned, err := env.ledger.Return(loan.ID, "tester")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReturned, returned.Status)
	assert.NotNil(t, returned.ReturnDate)
	assert.Equal(t, model.DisplayReturned, returned.DisplayStatus.State)
	assert.Equal(t, 3, env.stock(t, item.ID))
}

func TestReturnIsNotRepeatable(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	loan, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 2}},
	}, "tester")
	assert.NoError(t, err)

	first, err := env.ledger.Return(loan.ID, "tester")
	assert.NoError(t, err)
	firstReturnDate := *first.ReturnDate

	_, err = env.ledger.Return(loan.ID, "tester")
	var returnedErr *apperr.AlreadyReturnedError
	assert.ErrorAs(t, err, &returnedErr)

	// Stock and return date untouched by the second attempt
	assert.Equal(t, 3, env.stock(t, item.ID))
	reloaded, err := env.loanRepo.FindByID(loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, firstReturnDate.Unix(), reloaded.ReturnDate.Unix())
}

func TestReturnUnknownLoan(t *testing.T) {
	env := setupLedger(t)

	_, err := env.ledger.Return(uuid.New(), "tester")
	var notFoundErr *apperr.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestStockConservation(t *testing.T) {
	env := setupLedger(t)
	const initial = 10
	item := env.createItem(t, "Kursi", initial)
	borrower := env.createBorrower(t, "Pak Budi")

	check := func() {
		assert.Equal(t, initial, env.stock(t, item.ID)+env.reserved(t, item.ID))
	}

	loanA, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 3}},
	}, "tester")
	assert.NoError(t, err)
	check()

	loanB, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 4}},
	}, "tester")
	assert.NoError(t, err)
	check()

	_, err = env.ledger.Return(loanA.ID, "tester")
	assert.NoError(t, err)
	check()

	_, err = env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 6}},
	}, "tester")
	assert.NoError(t, err)
	check()

	_, err = env.ledger.Return(loanB.ID, "tester")
	assert.NoError(t, err)
	check()

	assert.GreaterOrEqual(t, env.stock(t, item.ID), 0)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.Checkout(&CheckoutRequest{
				BorrowerID: borrower.ID,
				Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 2}},
			}, "tester")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		failures++
		var stockErr *apperr.InsufficientStockError
		var contentionErr *apperr.ContentionError
		ok := errors.As(err, &stockErr) || errors.As(err, &contentionErr)
		assert.True(t, ok, "unexpected error: %v", err)
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, env.stock(t, item.ID))
}

func TestCheckoutContention(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 3)
	borrower := env.createBorrower(t, "Bu Sari")

	env.ledger.lockWait = 20 * time.Millisecond

	// Hold the item lock so the checkout cannot acquire it in time
	release, err := env.ledger.locks.acquire([]uuid.UUID{item.ID}, time.Second)
	assert.NoError(t, err)
	defer release()

	_, err = env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
	}, "tester")

	var contentionErr *apperr.ContentionError
	assert.ErrorAs(t, err, &contentionErr)
	assert.Equal(t, 3, env.stock(t, item.ID))
}

func TestListLoansFilters(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 5)
	borrower := env.createBorrower(t, "Bu Sari")

	open, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
	}, "tester")
	assert.NoError(t, err)

	closed, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
	}, "tester")
	assert.NoError(t, err)
	_, err = env.ledger.Return(closed.ID, "tester")
	assert.NoError(t, err)

	all, err := env.ledger.ListLoans("")
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	onLoan, err := env.ledger.ListLoans(string(model.StatusOnLoan))
	assert.NoError(t, err)
	assert.Len(t, onLoan, 1)
	assert.Equal(t, open.ID, onLoan[0].ID)

	returned, err := env.ledger.ListLoans(string(model.StatusReturned))
	assert.NoError(t, err)
	assert.Len(t, returned, 1)
	assert.Equal(t, closed.ID, returned[0].ID)

	// Joined view carries borrower and item details
	assert.NotNil(t, onLoan[0].Borrower)
	assert.Equal(t, "Bu Sari", onLoan[0].Borrower.Name)
	assert.NotNil(t, onLoan[0].Lines[0].Item)
	assert.Equal(t, "Proyektor", onLoan[0].Lines[0].Item.Name)
}

func TestListLoansOverdueFilter(t *testing.T) {
	env := setupLedger(t)
	item := env.createItem(t, "Proyektor", 5)
	borrower := env.createBorrower(t, "Bu Sari")

	// Backdate a loan past its due date directly
	overdueLoan := &model.Loan{
		BorrowerID: borrower.ID,
		Lines:      []model.LoanLine{{ItemID: item.ID, Quantity: 1}},
		BorrowDate: time.Now().AddDate(0, 0, -10),
		DueDate:    time.Now().AddDate(0, 0, -5),
		Status:     model.StatusOnLoan,
	}
	assert.NoError(t, env.db.Create(overdueLoan).Error)

	_, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
	}, "tester")
	assert.NoError(t, err)

	overdue, err := env.ledger.ListLoans(string(model.DisplayOverdue))
	assert.NoError(t, err)
	assert.Len(t, overdue, 1)
	assert.Equal(t, overdueLoan.ID, overdue[0].ID)
	assert.Equal(t, 5, overdue[0].DisplayStatus.DaysOverdue)
}
