package handler

import (
	"go-lending-ws/internal/model"
	"go-lending-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BorrowerHandler struct {
	catalog service.CatalogService
}

func NewBorrowerHandler(catalog service.CatalogService) *BorrowerHandler {
	return &BorrowerHandler{catalog: catalog}
}

func (h *BorrowerHandler) GetBorrowers(c *fiber.Ctx) error {
	borrowers, err := h.catalog.GetAllBorrowers()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(borrowers)
}

func (h *BorrowerHandler) GetBorrower(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid borrower ID"})
	}

	borrower, err := h.catalog.GetBorrower(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(borrower)
}

func (h *BorrowerHandler) CreateBorrower(c *fiber.Ctx) error {
	var borrower model.Borrower
	if err := c.BodyParser(&borrower); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.catalog.CreateBorrower(&borrower, getActor(c)); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Peminjam ditambahkan", "data": borrower})
}

func (h *BorrowerHandler) UpdateBorrower(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid borrower ID"})
	}

	var borrower model.Borrower
	if err := c.BodyParser(&borrower); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.catalog.UpdateBorrower(id, &borrower, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Peminjam diperbarui", "data": updated})
}

func (h *BorrowerHandler) DeleteBorrower(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid borrower ID"})
	}

	if err := h.catalog.DeleteBorrower(id, getActor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Peminjam dihapus"})
}
