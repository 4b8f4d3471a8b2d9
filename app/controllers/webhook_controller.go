package controllers

import (
	"net/url"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imagesync"
)

var validate = validator.New()

// StorageWebhookPayload is the upload notification the object-storage
// provider POSTs after an asset lands, in the provider's own field naming.
type StorageWebhookPayload struct {
	EventType    string `json:"event_type" validate:"required"`
	ResourceType string `json:"resource_type"`
	PublicID     string `json:"public_id" validate:"required"`
	SecureURL    string `json:"secure_url" validate:"required,url"`
	Format       string `json:"format"`
}

// WebhookController ingests storage-provider event notifications.
type WebhookController struct {
	reconciler *imagesync.Reconciler
}

func NewWebhookController(reconciler *imagesync.Reconciler) *WebhookController {
	return &WebhookController{reconciler: reconciler}
}

// HandleStorageWebhook downloads the asset named by an upload event into the
// local store so it is served from disk on the next request.
func (ctl *WebhookController) HandleStorageWebhook(c *fiber.Ctx) error {
	var payload StorageWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, err.Error())
	}
	if err := validate.Struct(&payload); err != nil {
		return badRequest(c, err.Error())
	}

	if payload.EventType != "upload" || (payload.ResourceType != "" && payload.ResourceType != "image") {
		fiberlog.Infof("[Webhook] Ignoring %s/%s event for %s",
			payload.EventType, payload.ResourceType, payload.PublicID)
		return c.JSON(fiber.Map{"success": true, "ignored": true})
	}

	fileName := webhookFileName(payload)
	if err := ctl.reconciler.SyncOne(c.Context(), payload.SecureURL, fileName); err != nil {
		fiberlog.Errorf("[Webhook] Failed to sync %s: %v", payload.PublicID, err)
		return upstreamError(c, err.Error())
	}

	fiberlog.Infof("[Webhook] Synced %s -> %s", payload.PublicID, fileName)
	return c.JSON(fiber.Map{"success": true, "file_name": fileName})
}

// webhookFileName combines the provider's public id and format into the local
// file name ("foo" + "png" -> "foo.png"). Ids may carry folder prefixes; only
// the base name is kept.
func webhookFileName(payload StorageWebhookPayload) string {
	name := path.Base(payload.PublicID)
	if payload.Format != "" && !strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(payload.Format)) {
		name += "." + payload.Format
	}
	return name
}

// fileNameFromURL derives a file name from the last URL path segment.
func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
