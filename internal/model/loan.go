package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the persisted loan state. Overdue is never stored; it is
// derived from the due date at display time (see DisplayStatusAt).
type LoanStatus string

const (
	StatusOnLoan   LoanStatus = "dipinjam"
	StatusReturned LoanStatus = "dikembalikan"
)

// Loans due within this many days show a warning badge.
const DueSoonThresholdDays = 3

// LoanLine is a single item position within a loan. Lines are owned by
// their loan and are not addressable on their own.
type LoanLine struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	LoanID       uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id" validate:"uuid_required"`
	Item         *Item     `gorm:"foreignKey:ItemID" json:"item,omitempty" validate:"-"`
	Quantity     int       `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	SerialNumber string    `gorm:"type:varchar(100)" json:"serial_number,omitempty"`
}

type Loan struct {
	BaseModel
	BorrowerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"borrower_id" validate:"uuid_required"`
	Borrower   *Borrower  `gorm:"foreignKey:BorrowerID" json:"borrower,omitempty" validate:"-"`
	Lines      []LoanLine `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"items" validate:"required,min=1,dive"`
	BorrowDate time.Time  `gorm:"not null;index" json:"borrow_date"`
	DueDate    time.Time  `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date,omitempty"`
	Status     LoanStatus `gorm:"type:varchar(15);not null;default:'dipinjam'" json:"status"`
	Purpose    string     `gorm:"type:text" json:"purpose,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`
}

// DisplayState is the human-facing loan state shown on dashboards and the
// return page. It extends the stored status with the derived overdue and
// due-soon conditions.
type DisplayState string

const (
	DisplayOnLoan   DisplayState = "dipinjam"
	DisplayDueSoon  DisplayState = "segera_jatuh_tempo"
	DisplayOverdue  DisplayState = "terlambat"
	DisplayReturned DisplayState = "dikembalikan"
)

type DisplayStatus struct {
	State        DisplayState `json:"state"`
	DaysOverdue  int          `json:"days_overdue,omitempty"`
	DaysUntilDue int          `json:"days_until_due,omitempty"`
}

// truncateToDay drops the time-of-day part, keeping the location.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsOverdueAt compares due date and now truncated to midnight, so a loan
// due today is not overdue until tomorrow.
func IsOverdueAt(dueDate, now time.Time) bool {
	return truncateToDay(dueDate).Before(truncateToDay(now))
}

// DaysUntilDueAt is the rounded-up number of days until the due date,
// computed over full timestamps. Negative when the due date has passed.
// Note: this deliberately uses a different precision than IsOverdueAt,
// mirroring the behaviour the frontend badges were built around; the two
// can disagree by one day near midnight.
func DaysUntilDueAt(dueDate, now time.Time) int {
	return int(math.Ceil(dueDate.Sub(now).Hours() / 24))
}

// daysOverdueAt counts whole days past due, both sides truncated to midnight.
func daysOverdueAt(dueDate, now time.Time) int {
	diff := truncateToDay(now).Sub(truncateToDay(dueDate))
	return int(diff.Hours() / 24)
}

// DisplayStatusAt derives the display state of the loan at the given time.
// Returned is terminal regardless of dates; overdue wins over due-soon.
func (l *Loan) DisplayStatusAt(now time.Time) DisplayStatus {
	if l.Status == StatusReturned {
		return DisplayStatus{State: DisplayReturned}
	}
	if IsOverdueAt(l.DueDate, now) {
		return DisplayStatus{
			State:       DisplayOverdue,
			DaysOverdue: daysOverdueAt(l.DueDate, now),
		}
	}
	daysLeft := DaysUntilDueAt(l.DueDate, now)
	if daysLeft <= DueSoonThresholdDays {
		return DisplayStatus{
			State:        DisplayDueSoon,
			DaysUntilDue: daysLeft,
		}
	}
	return DisplayStatus{
		State:        DisplayOnLoan,
		DaysUntilDue: daysLeft,
	}
}

// LoanResponse is the joined view for API responses: the loan with
// borrower and item details preloaded plus the derived display status.
type LoanResponse struct {
	Loan
	DisplayStatus DisplayStatus `json:"display_status"`
}

// ToResponse annotates the loan with its display status at the given time.
func (l *Loan) ToResponse(now time.Time) LoanResponse {
	return LoanResponse{Loan: *l, DisplayStatus: l.DisplayStatusAt(now)}
}
