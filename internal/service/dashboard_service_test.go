package service

import (
	"testing"
	"time"

	"go-lending-ws/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestDashboardStats(t *testing.T) {
	env := setupLedger(t)
	dash := NewDashboardService(env.itemRepo, env.borrowerRepo, env.loanRepo)

	itemA := env.createItem(t, "Proyektor", 5)
	env.createItem(t, "Laptop", 2)
	borrower := env.createBorrower(t, "Bu Sari")

	_, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: itemA.ID, Quantity: 1}},
	}, "tester")
	assert.NoError(t, err)

	// One loan already past due
	overdueLoan := &model.Loan{
		BorrowerID: borrower.ID,
		Lines:      []model.LoanLine{{ItemID: itemA.ID, Quantity: 1}},
		BorrowDate: time.Now().AddDate(0, 0, -10),
		DueDate:    time.Now().AddDate(0, 0, -3),
		Status:     model.StatusOnLoan,
	}
	assert.NoError(t, env.db.Create(overdueLoan).Error)

	stats, err := dash.GetStats()
	assert.NoError(t, err)
	assert.Equal(t, &DashboardStats{
		TotalItems:     2,
		TotalBorrowers: 1,
		ActiveLoan:     2,
		OverdueLoan:    1,
	}, stats)
}

func TestLoanMovement(t *testing.T) {
	env := setupLedger(t)
	dash := NewDashboardService(env.itemRepo, env.borrowerRepo, env.loanRepo)

	item := env.createItem(t, "Proyektor", 5)
	borrower := env.createBorrower(t, "Bu Sari")

	loan, err := env.ledger.Checkout(&CheckoutRequest{
		BorrowerID: borrower.ID,
		Lines:      []CheckoutLine{{ItemID: item.ID, Quantity: 1}},
	}, "tester")
	assert.NoError(t, err)
	_, err = env.ledger.Return(loan.ID, "tester")
	assert.NoError(t, err)

	movement, err := dash.GetLoanMovement(7)
	assert.NoError(t, err)
	assert.Len(t, movement, 1)
	assert.Equal(t, 1, movement[0].Borrowed)
	assert.Equal(t, 1, movement[0].Returned)
	assert.NotEmpty(t, movement[0].Date)
}
