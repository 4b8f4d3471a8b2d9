package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/controllers"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/middleware"
)

// AdminRouter installs the back-office surface behind the API key guard.
type AdminRouter struct {
	deps Deps
}

func NewAdminRouter(deps Deps) *AdminRouter {
	return &AdminRouter{deps: deps}
}

func (h *AdminRouter) InstallRouter(app *fiber.App) {
	imageCtl := controllers.NewImageController(h.deps.Backend)
	adminUploadCtl := controllers.NewAdminUploadController(h.deps.Git)
	syncCtl := controllers.NewSyncController(h.deps.Reconciler)
	settingsCtl := controllers.NewAdminSettingsController()

	admin := app.Group("/api/admin", middleware.AdminKeyMiddleware())

	admin.Get("/images", imageCtl.HandleListImages)
	admin.Delete("/images/:id", imageCtl.HandleDeleteImage)
	admin.Post("/upload-to-git", adminUploadCtl.HandleUploadToGit)
	admin.Post("/sync-images", syncCtl.HandleSyncImages)
	admin.Post("/sync-image", syncCtl.HandleSyncSingle)
	admin.Get("/sync-report", syncCtl.HandleLastSyncReport)
	admin.Get("/stats", imageCtl.HandleStats)
	admin.Get("/settings", settingsCtl.HandleGetSettings)
	admin.Put("/settings", settingsCtl.HandleUpdateSettings)
}
