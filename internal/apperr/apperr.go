// Package apperr defines the error taxonomy shared by the ledger and the
// HTTP layer. Handlers map these to status codes with errors.As/Is.
package apperr

import "fmt"

// ValidationError reports malformed input. Not retryable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing item, borrower or loan.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s tidak ditemukan", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError reports a checkout line asking for more units than
// the item has on the shelf. Carries the item name and the available count
// so the message matches what the forms display.
type InsufficientStockError struct {
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stok %s tidak mencukupi (tersedia: %d)", e.ItemName, e.Available)
}

// AlreadyReturnedError reports a return request against a loan that is not
// on loan anymore. Stock is never incremented twice.
type AlreadyReturnedError struct {
	LoanID string
}

func (e *AlreadyReturnedError) Error() string {
	return fmt.Sprintf("peminjaman %s sudah dikembalikan", e.LoanID)
}

// ContentionError reports a timed-out wait for an item lock. Retryable.
type ContentionError struct {
	ItemID string
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("item %s sedang diproses permintaan lain, coba lagi", e.ItemID)
}
