package handler

import (
	"go-lending-ws/internal/model"
	"go-lending-ws/internal/repository"
	"go-lending-ws/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type SettingHandler struct {
	settingRepo repository.SettingRepository
}

func NewSettingHandler(settingRepo repository.SettingRepository) *SettingHandler {
	return &SettingHandler{settingRepo: settingRepo}
}

// GetSettings returns the system configuration
// GET /api/v1/settings
func (h *SettingHandler) GetSettings(c *fiber.Ctx) error {
	setting, err := h.settingRepo.Get()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch settings"})
	}
	return c.JSON(setting)
}

// UpdateSettings replaces the editable configuration fields
// PUT /api/v1/settings
func (h *SettingHandler) UpdateSettings(c *fiber.Ctx) error {
	var req model.Setting
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": validator.FirstErrorMessage(errs)})
	}

	setting, err := h.settingRepo.Get()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch settings"})
	}

	if req.SiteName != "" {
		setting.SiteName = req.SiteName
	}
	if req.DefaultLoanDays > 0 {
		setting.DefaultLoanDays = req.DefaultLoanDays
	}
	if req.MaxLoanItems > 0 {
		setting.MaxLoanItems = req.MaxLoanItems
	}
	setting.OverdueReminders = req.OverdueReminders
	setting.ReturnReminders = req.ReturnReminders
	setting.UpdatedBy = getActor(c)

	if err := h.settingRepo.Update(setting); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update settings"})
	}
	return c.JSON(fiber.Map{"message": "Pengaturan disimpan", "data": setting})
}
