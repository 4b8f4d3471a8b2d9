package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
)

// AdminSettingsController exposes the application switches (currently only
// the upload toggle) to the back-office.
type AdminSettingsController struct {
	settings repository.SettingRepository
}

func NewAdminSettingsController() *AdminSettingsController {
	return &AdminSettingsController{
		settings: repository.GetGlobalFactory().GetSettingRepository(),
	}
}

func (ctl *AdminSettingsController) HandleGetSettings(c *fiber.Ctx) error {
	settings, err := ctl.settings.Get()
	if err != nil {
		return upstreamError(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "settings": settings})
}

func (ctl *AdminSettingsController) HandleUpdateSettings(c *fiber.Ctx) error {
	var req struct {
		SiteTitle          *string `json:"site_title"`
		ImageUploadEnabled *bool   `json:"image_upload_enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}

	current, err := ctl.settings.Get()
	if err != nil {
		return upstreamError(c, err.Error())
	}

	updated := &models.AppSettings{
		SiteTitle:          current.SiteTitle,
		ImageUploadEnabled: current.ImageUploadEnabled,
	}
	if req.SiteTitle != nil {
		updated.SiteTitle = *req.SiteTitle
	}
	if req.ImageUploadEnabled != nil {
		updated.ImageUploadEnabled = *req.ImageUploadEnabled
	}

	if err := ctl.settings.Save(updated); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "settings": updated})
}
