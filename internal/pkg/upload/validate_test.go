package upload_test

import (
	"bytes"
	"image"
	"image/png"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/upload"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImageBySniff(t *testing.T) {
	head := pngBytes(t)

	mime, err := upload.ValidateImageBySniff("menu.png", head)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	// Extension casing must not matter
	_, err = upload.ValidateImageBySniff("MENU.PNG", head)
	assert.NoError(t, err)
}

func TestValidateImageBySniffRejectsBadExtension(t *testing.T) {
	_, err := upload.ValidateImageBySniff("script.exe", pngBytes(t))
	assert.Error(t, err)

	_, err = upload.ValidateImageBySniff("logo.svg", []byte("<svg></svg>"))
	assert.Error(t, err)
}

func TestValidateImageBySniffRejectsHTMLPayload(t *testing.T) {
	_, err := upload.ValidateImageBySniff("fake.png", []byte("<!DOCTYPE html><html><body>x</body></html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}

func TestValidateSize(t *testing.T) {
	assert.NoError(t, upload.ValidateSize(upload.DirectUploadLimitBytes))
	assert.ErrorIs(t, upload.ValidateSize(upload.DirectUploadLimitBytes+1), upload.ErrTooLarge)
}

func TestGenerateFileName(t *testing.T) {
	name := upload.GenerateFileName("Burger Deluxe.JPG")

	assert.True(t, strings.HasSuffix(name, ".jpg"), "extension must be kept and lowercased: %s", name)
	assert.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-f]{8}\.jpg$`), name)

	// Two calls must not collide on the random token
	other := upload.GenerateFileName("Burger Deluxe.JPG")
	assert.NotEqual(t, name, other)
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "menu.jpg", upload.JPEGName("menu.png"))
	assert.Equal(t, "menu.jpg", upload.JPEGName("menu.jpg"))
	assert.Equal(t, "photo.2024.jpg", upload.JPEGName("photo.2024.webp"))

	// A re-encoded upload must end up recorded as JPEG
	name := upload.GenerateFileName(upload.JPEGName("menu.png"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.Equal(t, "image/jpeg", upload.ContentTypeByExt(name))
}

func TestContentTypeByExt(t *testing.T) {
	assert.Equal(t, "image/jpeg", upload.ContentTypeByExt("a.jpeg"))
	assert.Equal(t, "image/webp", upload.ContentTypeByExt("b.WEBP"))
	assert.Equal(t, "application/octet-stream", upload.ContentTypeByExt("c.pdf"))
}
