package controllers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/app/repository"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/imageprocessor"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/statistics"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/upload"
)

// UploadController ingests multipart image uploads through the configured
// storage backend.
type UploadController struct {
	images  repository.ImageRepository
	backend storage.Backend
}

func NewUploadController(backend storage.Backend) *UploadController {
	return &UploadController{
		images:  repository.GetGlobalFactory().GetImageRepository(),
		backend: backend,
	}
}

// HandleUpload accepts a single multipart file, validates it, shrinks it
// under the hosting ceiling if needed, stores it and records the metadata.
func (ctl *UploadController) HandleUpload(c *fiber.Ctx) error {
	if !models.GetAppSettings().IsImageUploadEnabled() {
		return jsonError(c, fiber.StatusForbidden, "uploads_disabled", "Image upload is currently disabled")
	}

	form, err := c.MultipartForm()
	if err != nil {
		fiberlog.Errorf("Error parsing multipart form: %v", err)
		return badRequest(c, err.Error())
	}
	defer form.RemoveAll()

	files := form.File["file"]
	if len(files) == 0 {
		return badRequest(c, "No file uploaded")
	}
	file := files[0]

	if err := upload.ValidateSize(file.Size); err != nil {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	}

	src, err := file.Open()
	if err != nil {
		fiberlog.Errorf("Error opening uploaded file: %v", err)
		return upstreamError(c, err.Error())
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		fiberlog.Errorf("Error reading uploaded file: %v", err)
		return upstreamError(c, err.Error())
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := upload.ValidateImageBySniff(file.Filename, head); err != nil {
		return badRequest(c, err.Error())
	}

	image, _, err := ctl.ingest(c, file.Filename, data)
	if err != nil {
		if errors.Is(err, errResponseHandled) {
			return nil
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"image":   image,
	})
}

var errResponseHandled = errors.New("upload response already handled")

// markHandled flags that the HTTP response was already written; callers only
// need to stop, not respond again.
func markHandled(err error) error {
	if err != nil {
		return err
	}
	return errResponseHandled
}

// ingest runs the shared shrink -> store -> record pipeline. On failure the
// HTTP response has already been written and the returned error satisfies
// errors.Is(err, errResponseHandled).
func (ctl *UploadController) ingest(c *fiber.Ctx, originalName string, data []byte) (*models.Image, *imageprocessor.ShrinkResult, error) {
	shrunk := imageprocessor.FitUnderCeiling(data)
	name := originalName
	if shrunk.Optimized {
		// The shrink stage re-encoded the buffer as JPEG; the stored
		// extension and content type must describe the actual bytes.
		name = upload.JPEGName(name)
	}
	fileName := upload.GenerateFileName(name)
	contentType := upload.ContentTypeByExt(fileName)

	stored, err := ctl.backend.Store(c.Context(), fileName, shrunk.Data, contentType)
	if err != nil {
		fiberlog.Errorf("Error storing file %s: %v", fileName, err)
		return nil, nil, markHandled(upstreamError(c, err.Error()))
	}

	image := &models.Image{
		FileName:     fileName,
		OriginalName: originalName,
		ContentType:  contentType,
		FilePath:     stored.Locator.String(),
		ExternalID:   stored.ExternalID,
		FileSize:     int64(len(shrunk.Data)),
		Width:        shrunk.Width,
		Height:       shrunk.Height,
	}
	imageprocessor.ExtractMetadata(image, shrunk.Data)

	if err := imageprocessor.CreateThumbnail(fileName, shrunk.Data); err != nil {
		// The listing falls back to the full image without a thumbnail.
		fiberlog.Warnf("Thumbnail generation failed for %s: %v", fileName, err)
	} else {
		image.HasThumbnail = true
	}

	if err := ctl.images.Create(image); err != nil {
		fiberlog.Errorf("Error saving image record %s: %v", fileName, err)
		if delErr := ctl.backend.Delete(c.Context(), stored.ExternalID); delErr != nil {
			fiberlog.Warnf("Failed to clean up stored file after DB error: %v", delErr)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, markHandled(jsonError(c, fiber.StatusConflict, "duplicate", "An image with this file name already exists"))
		}
		return nil, nil, markHandled(upstreamError(c, err.Error()))
	}

	go statistics.UpdateStatisticsCache()

	fiberlog.Infof("[Upload] %s -> %s (%d bytes)", originalName, stored.Locator, len(shrunk.Data))
	return image, shrunk, nil
}
