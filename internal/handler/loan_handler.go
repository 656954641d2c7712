package handler

import (
	"go-lending-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LoanHandler struct {
	ledger service.LedgerService
}

func NewLoanHandler(ledger service.LedgerService) *LoanHandler {
	return &LoanHandler{ledger: ledger}
}

// Checkout handles loan creation
// POST /api/v1/loans
func (h *LoanHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	loan, err := h.ledger.Checkout(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Peminjaman dicatat", "data": loan})
}

// Return closes a loan and restores stock
// POST /api/v1/loans/:id/return
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.ledger.Return(loanID, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Barang dikembalikan", "data": loan})
}

// GetLoans lists loans with joined borrower/item details
// GET /api/v1/loans?status=dipinjam|dikembalikan|terlambat|segera_jatuh_tempo
func (h *LoanHandler) GetLoans(c *fiber.Ctx) error {
	loans, err := h.ledger.ListLoans(c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loans)
}

// GetLoan returns a single loan with details
// GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.ledger.GetLoan(loanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loan)
}
