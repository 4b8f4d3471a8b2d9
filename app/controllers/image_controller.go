package controllers

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/env"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imageprocessor"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/statistics"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

// One year; stored file names are unique and never reused, so cached copies
// can be considered immutable.
const imageCacheControl = "public, max-age=31536000, immutable"

// ImageController serves, lists and deletes image records.
type ImageController struct {
	images  repository.ImageRepository
	backend storage.Backend
}

func NewImageController(backend storage.Backend) *ImageController {
	return &ImageController{
		images:  repository.GetGlobalFactory().GetImageRepository(),
		backend: backend,
	}
}

// lookup resolves the :id route parameter, accepting either the numeric
// record id or the stored file name.
func (ctl *ImageController) lookup(idParam string) (*models.Image, error) {
	if id, err := strconv.ParseUint(idParam, 10, 64); err == nil {
		return ctl.images.GetByID(uint(id))
	}
	return ctl.images.GetByFileName(idParam)
}

// HandleServeImage resolves a stored reference to bytes or a redirect.
func (ctl *ImageController) HandleServeImage(c *fiber.Ctx) error {
	image, err := ctl.lookup(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Image not found")
		}
		return upstreamError(c, err.Error())
	}

	locator, err := storage.ParseLocator(image.FilePath)
	if err != nil {
		fiberlog.Errorf("[Serve] Image %d has malformed locator %q: %v", image.ID, image.FilePath, err)
		return ctl.fallback(c)
	}

	switch locator.Kind {
	case storage.LocatorRemote:
		return c.Redirect(locator.Ref, fiber.StatusFound)

	case storage.LocatorLocal:
		localPath := filepath.Join(storage.UploadsDir(), locator.Ref)
		if _, err := os.Stat(localPath); err != nil {
			// Dangling references are expected, not prevented.
			fiberlog.Warnf("[Serve] Local file missing for image %d: %s", image.ID, localPath)
			return ctl.fallback(c)
		}
		c.Set(fiber.HeaderCacheControl, imageCacheControl)
		c.Set(fiber.HeaderContentType, image.ContentType)
		return c.SendFile(localPath)

	case storage.LocatorProvider:
		return c.Redirect(ctl.backend.URLFor(locator.Ref), fiber.StatusFound)

	default:
		return ctl.fallback(c)
	}
}

// fallback redirects to the configured placeholder image, or 404s when none
// is set.
func (ctl *ImageController) fallback(c *fiber.Ctx) error {
	if placeholder := env.GetEnv("PLACEHOLDER_IMAGE_URL", ""); placeholder != "" {
		return c.Redirect(placeholder, fiber.StatusFound)
	}
	return notFound(c, "Image data unavailable")
}

// HandleServeThumbnail streams the WebP thumbnail, falling back to the full
// image when none was generated.
func (ctl *ImageController) HandleServeThumbnail(c *fiber.Ctx) error {
	image, err := ctl.lookup(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Image not found")
		}
		return upstreamError(c, err.Error())
	}

	if image.HasThumbnail {
		thumbPath := imageprocessor.ThumbnailPath(image.FileName)
		if _, err := os.Stat(thumbPath); err == nil {
			c.Set(fiber.HeaderCacheControl, imageCacheControl)
			c.Set(fiber.HeaderContentType, "image/webp")
			return c.SendFile(thumbPath)
		}
	}
	return ctl.HandleServeImage(c)
}

// HandleListImages returns a metadata page for the admin back-office.
func (ctl *ImageController) HandleListImages(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	images, err := ctl.images.List((page-1)*limit, limit)
	if err != nil {
		return upstreamError(c, err.Error())
	}
	total, err := ctl.images.Count()
	if err != nil {
		return upstreamError(c, err.Error())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"images":  images,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// HandleDeleteImage removes the blob and the record. A blob that is already
// gone does not block the record delete.
func (ctl *ImageController) HandleDeleteImage(c *fiber.Ctx) error {
	image, err := ctl.lookup(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Image not found")
		}
		return upstreamError(c, err.Error())
	}

	if key := deleteKey(image); key != "" {
		if err := ctl.backend.Delete(c.Context(), key); err != nil &&
			!errors.Is(err, storage.ErrObjectNotFound) {
			fiberlog.Warnf("[Delete] Blob delete failed for image %d: %v", image.ID, err)
		}
	}

	// The local copy and thumbnail may exist regardless of backend.
	if locator, err := storage.ParseLocator(image.FilePath); err == nil && locator.Kind == storage.LocatorLocal {
		if err := os.Remove(filepath.Join(storage.UploadsDir(), locator.Ref)); err != nil && !os.IsNotExist(err) {
			fiberlog.Warnf("[Delete] Local file delete failed for image %d: %v", image.ID, err)
		}
	}
	if image.HasThumbnail {
		if err := os.Remove(imageprocessor.ThumbnailPath(image.FileName)); err != nil && !os.IsNotExist(err) {
			fiberlog.Warnf("[Delete] Thumbnail delete failed for image %d: %v", image.ID, err)
		}
	}

	if err := ctl.images.Delete(image.ID); err != nil {
		return upstreamError(c, err.Error())
	}

	go statistics.UpdateStatisticsCache()

	fiberlog.Infof("[Delete] Removed image %d (%s)", image.ID, image.FileName)
	return c.JSON(fiber.Map{"success": true})
}

// HandleStats returns the cached store counters.
func (ctl *ImageController) HandleStats(c *fiber.Ctx) error {
	stats, err := statistics.GetStatistics()
	if err != nil {
		return upstreamError(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}

// deleteKey picks the backend-native key for a blob delete.
func deleteKey(image *models.Image) string {
	if image.ExternalID != "" {
		return image.ExternalID
	}
	locator, err := storage.ParseLocator(image.FilePath)
	if err != nil || locator.Kind == storage.LocatorRemote {
		return ""
	}
	return locator.Ref
}
