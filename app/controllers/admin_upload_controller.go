package controllers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/upload"
)

// AdminUploadController handles the back-office "commit to site repository"
// upload. The git backend is configured independently of the default backend
// so the admin can push assets into the deployed site even when regular
// uploads land elsewhere.
type AdminUploadController struct {
	uploads *UploadController
	git     *storage.GithubBackend
}

func NewAdminUploadController(git *storage.GithubBackend) *AdminUploadController {
	return &AdminUploadController{
		uploads: NewUploadController(git),
		git:     git,
	}
}

// HandleUploadToGit validates and shrinks a multipart file, then commits it
// to the configured repository. The response reports how much the shrink
// stage saved.
func (ctl *AdminUploadController) HandleUploadToGit(c *fiber.Ctx) error {
	if ctl.git == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "git_not_configured",
			"GitHub storage is not configured")
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
		return upstreamError(c, err.Error())
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		return upstreamError(c, err.Error())
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := upload.ValidateImageBySniff(file.Filename, head); err != nil {
		return badRequest(c, err.Error())
	}

	image, shrunk, err := ctl.uploads.ingest(c, file.Filename, data)
	if err != nil {
		if errors.Is(err, errResponseHandled) {
			return nil
		}
		return err
	}

	originalSize := int64(len(data))
	optimizedSize := image.FileSize
	reduction := "0%"
	if shrunk.Optimized && originalSize > 0 {
		reduction = fmt.Sprintf("%.1f%%", 100*float64(originalSize-optimizedSize)/float64(originalSize))
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"image_id":       image.ID,
		"file_name":      image.FileName,
		"git_path":       image.ExternalID,
		"github_url":     ctl.git.URLFor(image.ExternalID),
		"original_size":  originalSize,
		"optimized_size": optimizedSize,
		"size_reduction": reduction,
	})
}
