package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/cache"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imagesync"
)

const (
	syncLockKey       = "lock:sync:images"
	syncLockTTL       = 10 * time.Minute
	syncLastReportKey = "sync:last_report"
)

// SyncController exposes the reconciler to admin actions.
type SyncController struct {
	reconciler *imagesync.Reconciler
}

func NewSyncController(reconciler *imagesync.Reconciler) *SyncController {
	return &SyncController{reconciler: reconciler}
}

// HandleSyncImages runs a bulk reconciliation. A cache lock rejects
// overlapping runs; a second trigger while one is in flight gets 409.
func (ctl *SyncController) HandleSyncImages(c *fiber.Ctx) error {
	cli := cache.GetClient()
	ctx := context.Background()

	acquired, err := cli.SetNX(ctx, syncLockKey, "1", syncLockTTL).Result()
	if err != nil {
		fiberlog.Warnf("[Sync] Lock check failed, proceeding without lock: %v", err)
		acquired = true
	}
	if !acquired {
		return jsonError(c, fiber.StatusConflict, "sync_in_progress", "A sync is already running")
	}
	defer func() { _ = cli.Del(ctx, syncLockKey).Err() }()

	report, err := ctl.reconciler.SyncAll(c.Context())
	if err != nil {
		fiberlog.Errorf("[Sync] Bulk sync failed: %v", err)
		return upstreamError(c, err.Error())
	}

	if raw, err := json.Marshal(report); err == nil {
		_ = cache.Set(syncLastReportKey, string(raw), 24*time.Hour)
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"synced":            report.Synced,
		"total":             report.Total,
		"failures":          report.Failures,
		"rebuild_triggered": report.RebuildTriggered,
	})
}

// HandleSyncSingle downloads one image by URL. Errors surface directly.
func (ctl *SyncController) HandleSyncSingle(c *fiber.Ctx) error {
	var req struct {
		URL      string `json:"url" validate:"required,url"`
		FileName string `json:"file_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = fileNameFromURL(req.URL)
	}
	if fileName == "" {
		return badRequest(c, "Cannot derive a file name from the URL; pass file_name")
	}

	if err := ctl.reconciler.SyncOne(c.Context(), req.URL, fileName); err != nil {
		fiberlog.Errorf("[Sync] Single sync of %s failed: %v", req.URL, err)
		return upstreamError(c, err.Error())
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"file_name": fileName,
	})
}

// HandleLastSyncReport returns the cached report of the most recent bulk run.
func (ctl *SyncController) HandleLastSyncReport(c *fiber.Ctx) error {
	raw, err := cache.Get(syncLastReportKey)
	if err != nil {
		return notFound(c, "No sync has completed yet")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(raw)
}
