package controllers

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

// stubImageRepo serves fixed records by id and file name.
type stubImageRepo struct {
	images []*models.Image
}

func (r *stubImageRepo) Create(image *models.Image) error { return nil }

func (r *stubImageRepo) GetByID(id uint) (*models.Image, error) {
	for _, img := range r.images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubImageRepo) GetByFileName(fileName string) (*models.Image, error) {
	for _, img := range r.images {
		if img.FileName == fileName {
			return img, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubImageRepo) UpdateLocator(id uint, filePath, externalID string) error { return nil }
func (r *stubImageRepo) Delete(id uint) error                                    { return nil }
func (r *stubImageRepo) List(offset, limit int) ([]models.Image, error)          { return nil, nil }
func (r *stubImageRepo) Count() (int64, error)                                   { return 0, nil }
func (r *stubImageRepo) TotalSize() (int64, error)                               { return 0, nil }

// stubBackend only resolves public URLs; the serving path never stores.
type stubBackend struct{}

func (stubBackend) Name() string { return "stub" }
func (stubBackend) Store(_ context.Context, name string, data []byte, _ string) (*storage.Stored, error) {
	return nil, nil
}
func (stubBackend) Delete(_ context.Context, key string) error      { return nil }
func (stubBackend) List(_ context.Context) ([]storage.Object, error) { return nil, nil }
func (stubBackend) Fetch(_ context.Context, key string) ([]byte, error) {
	return nil, storage.ErrObjectNotFound
}
func (stubBackend) URLFor(key string) string { return "https://stub.example/" + key }

func newServeApp(repo *stubImageRepo) *fiber.App {
	ctl := &ImageController{images: repo, backend: stubBackend{}}
	app := fiber.New()
	app.Get("/images/:id", ctl.HandleServeImage)
	return app
}

func TestHandleServeImageLocalStream(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOADS_DIR", dir)
	t.Setenv("PLACEHOLDER_IMAGE_URL", "")

	stored := []byte("jpeg bytes that must round-trip unchanged")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.jpg"), stored, 0644))

	app := newServeApp(&stubImageRepo{images: []*models.Image{{
		ID:          1,
		FileName:    "m.jpg",
		ContentType: "image/jpeg",
		FilePath:    "local:m.jpg",
	}}})

	resp, err := app.Test(httptest.NewRequest("GET", "/images/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, imageCacheControl, resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "image/jpeg", resp.Header.Get(fiber.HeaderContentType))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(stored, body), "served bytes must equal the stored bytes")

	// The file name works as identifier too
	resp, err = app.Test(httptest.NewRequest("GET", "/images/m.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleServeImageRemoteRedirect(t *testing.T) {
	app := newServeApp(&stubImageRepo{images: []*models.Image{{
		ID:       2,
		FileName: "r.jpg",
		FilePath: "remote:https://cdn.example.com/r.jpg",
	}}})

	resp, err := app.Test(httptest.NewRequest("GET", "/images/2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://cdn.example.com/r.jpg", resp.Header.Get(fiber.HeaderLocation))
}

func TestHandleServeImageProviderRedirect(t *testing.T) {
	app := newServeApp(&stubImageRepo{images: []*models.Image{{
		ID:       3,
		FileName: "p.jpg",
		FilePath: "provider:images/p.jpg",
	}}})

	resp, err := app.Test(httptest.NewRequest("GET", "/images/3", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://stub.example/images/p.jpg", resp.Header.Get(fiber.HeaderLocation))
}

func TestHandleServeImageDanglingLocalFallsBack(t *testing.T) {
	t.Setenv("UPLOADS_DIR", t.TempDir())
	repo := &stubImageRepo{images: []*models.Image{{
		ID:       4,
		FileName: "gone.jpg",
		FilePath: "local:gone.jpg",
	}}}

	// Without a placeholder a dangling reference is a 404
	t.Setenv("PLACEHOLDER_IMAGE_URL", "")
	app := newServeApp(repo)
	resp, err := app.Test(httptest.NewRequest("GET", "/images/4", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// With one configured it redirects there
	t.Setenv("PLACEHOLDER_IMAGE_URL", "https://site.example/placeholder.png")
	resp, err = app.Test(httptest.NewRequest("GET", "/images/4", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://site.example/placeholder.png", resp.Header.Get(fiber.HeaderLocation))
}

func TestHandleServeImageMalformedLocatorFallsBack(t *testing.T) {
	t.Setenv("PLACEHOLDER_IMAGE_URL", "https://site.example/placeholder.png")
	app := newServeApp(&stubImageRepo{images: []*models.Image{{
		ID:       5,
		FileName: "bad.jpg",
		FilePath: "bad.jpg",
	}}})

	resp, err := app.Test(httptest.NewRequest("GET", "/images/5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestHandleServeImageUnknownRecord(t *testing.T) {
	app := newServeApp(&stubImageRepo{})

	resp, err := app.Test(httptest.NewRequest("GET", "/images/99", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
