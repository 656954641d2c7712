package repository

import (
	"sort"
	"time"

	"go-lending-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanRepository interface {
	Create(tx *gorm.DB, loan *model.Loan) error
	FindAll() ([]model.Loan, error)
	FindByID(id uuid.UUID) (*model.Loan, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Loan, error)
	Update(tx *gorm.DB, loan *model.Loan) error
	CountActive() (int64, error)
	CountOverdue(now time.Time) (int64, error)
	HasOpenLoanForItem(itemID uuid.UUID) (bool, error)
	HasOpenLoanForBorrower(borrowerID uuid.UUID) (bool, error)
	GetLoanMovement(startDate, endDate time.Time) ([]LoanMovementData, error)
}

// LoanMovementData feeds the dashboard activity chart: loans opened and
// closed per calendar day.
type LoanMovementData struct {
	Date     string `json:"date"`
	Borrowed int    `json:"borrowed"`
	Returned int    `json:"returned"`
}

type loanRepo struct {
	db *gorm.DB
}

func NewLoanRepo(db *gorm.DB) LoanRepository {
	return &loanRepo{db}
}

func (r *loanRepo) Create(tx *gorm.DB, loan *model.Loan) error {
	return tx.Create(loan).Error
}

func (r *loanRepo) FindAll() ([]model.Loan, error) {
	var loans []model.Loan
	err := r.db.
		Preload("Borrower").
		Preload("Lines.Item").
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepo) FindByID(id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.
		Preload("Borrower").
		Preload("Lines.Item").
		First(&loan, "id = ?", id).Error
	return &loan, err
}

// LockByID loads the loan with its lines inside tx holding a row lock, so
// concurrent returns of the same loan serialize.
func (r *loanRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	if err := lockForUpdate(tx).First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("loan_id = ?", id).Find(&loan.Lines).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepo) Update(tx *gorm.DB, loan *model.Loan) error {
	return tx.Omit("Lines", "Borrower").Save(loan).Error
}

func (r *loanRepo) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.Loan{}).
		Where("status = ?", model.StatusOnLoan).
		Count(&count).Error
	return count, err
}

// CountOverdue counts open loans whose due date lies before today. The
// comparison is date-only, matching model.IsOverdueAt.
func (r *loanRepo) CountOverdue(now time.Time) (int64, error) {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var count int64
	err := r.db.Model(&model.Loan{}).
		Where("status = ? AND due_date < ?", model.StatusOnLoan, startOfToday).
		Count(&count).Error
	return count, err
}

func (r *loanRepo) HasOpenLoanForItem(itemID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.LoanLine{}).
		Joins("JOIN loans ON loans.id = loan_lines.loan_id").
		Where("loan_lines.item_id = ? AND loans.status = ? AND loans.deleted_at IS NULL", itemID, model.StatusOnLoan).
		Count(&count).Error
	return count > 0, err
}

func (r *loanRepo) HasOpenLoanForBorrower(borrowerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Loan{}).
		Where("borrower_id = ? AND status = ?", borrowerID, model.StatusOnLoan).
		Count(&count).Error
	return count > 0, err
}

func (r *loanRepo) GetLoanMovement(startDate, endDate time.Time) ([]LoanMovementData, error) {
	byDate := map[string]*LoanMovementData{}
	var dates []string

	bucket := func(date string) *LoanMovementData {
		if d, ok := byDate[date]; ok {
			return d
		}
		d := &LoanMovementData{Date: date}
		byDate[date] = d
		dates = append(dates, date)
		return d
	}

	// Loans opened per day
	rows, err := r.db.Model(&model.Loan{}).
		Select("DATE(borrow_date) as date, COUNT(*) as total").
		Where("borrow_date BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(borrow_date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var date string
		var total int
		if err := rows.Scan(&date, &total); err != nil {
			rows.Close()
			return nil, err
		}
		bucket(date).Borrowed = total
	}
	rows.Close()

	// Loans closed per day
	rows, err = r.db.Model(&model.Loan{}).
		Select("DATE(return_date) as date, COUNT(*) as total").
		Where("return_date IS NOT NULL AND return_date BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(return_date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		var total int
		if err := rows.Scan(&date, &total); err != nil {
			return nil, err
		}
		bucket(date).Returned = total
	}

	sort.Strings(dates)
	results := make([]LoanMovementData, 0, len(dates))
	for _, date := range dates {
		results = append(results, *byDate[date])
	}
	return results, nil
}
