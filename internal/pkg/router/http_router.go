package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/controllers"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

// HttpRouter installs the public surface: ingestion, serving and the
// storage-provider webhook.
type HttpRouter struct {
	deps Deps
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h *HttpRouter) InstallRouter(app *fiber.App) {
	uploadCtl := controllers.NewUploadController(h.deps.Backend)
	imageCtl := controllers.NewImageController(h.deps.Backend)
	webhookCtl := controllers.NewWebhookController(h.deps.Reconciler)

	api := app.Group("/api", limiter.New())
	api.Post("/upload", uploadCtl.HandleUpload)
	api.Post("/webhooks/storage", webhookCtl.HandleStorageWebhook)

	app.Get("/images/:id/thumb", imageCtl.HandleServeThumbnail)
	app.Get("/images/:id", imageCtl.HandleServeImage)

	// Locally synced files are also reachable directly as static assets.
	app.Static(storage.PublicUploadsPrefix, storage.UploadsDir(), fiber.Static{
		MaxAge: 31536000,
	})
}
