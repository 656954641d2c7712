package service

import (
	"time"

	"go-lending-ws/internal/repository"
)

// DashboardStats is the overview card data on the landing page.
type DashboardStats struct {
	TotalItems     int64 `json:"total_items"`
	TotalBorrowers int64 `json:"total_borrowers"`
	ActiveLoan     int64 `json:"active_loan"`
	OverdueLoan    int64 `json:"overdue_loan"`
}

type DashboardService interface {
	GetStats() (*DashboardStats, error)
	GetLoanMovement(days int) ([]repository.LoanMovementData, error)
}

type dashboardService struct {
	itemRepo     repository.ItemRepository
	borrowerRepo repository.BorrowerRepository
	loanRepo     repository.LoanRepository
}

func NewDashboardService(
	itemRepo repository.ItemRepository,
	borrowerRepo repository.BorrowerRepository,
	loanRepo repository.LoanRepository,
) DashboardService {
	return &dashboardService{
		itemRepo:     itemRepo,
		borrowerRepo: borrowerRepo,
		loanRepo:     loanRepo,
	}
}

func (s *dashboardService) GetStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.TotalItems, err = s.itemRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalBorrowers, err = s.borrowerRepo.Count(); err != nil {
		return nil, err
	}
	if stats.ActiveLoan, err = s.loanRepo.CountActive(); err != nil {
		return nil, err
	}
	if stats.OverdueLoan, err = s.loanRepo.CountOverdue(time.Now()); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *dashboardService) GetLoanMovement(days int) ([]repository.LoanMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)
	return s.loanRepo.GetLoanMovement(startDate, endDate)
}
