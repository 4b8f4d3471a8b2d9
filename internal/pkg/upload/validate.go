package upload

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DirectUploadLimitBytes is the hard ceiling for direct multipart uploads.
const DirectUploadLimitBytes = 5 * 1024 * 1024

// ErrTooLarge flags payloads over the direct upload ceiling.
var ErrTooLarge = fmt.Errorf("file exceeds the %d MB upload limit", DirectUploadLimitBytes/(1024*1024))

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".bmp":  true,
	// Note: SVG is intentionally excluded due to XSS risk without sanitization
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
	"image/bmp":  true,
}

// ValidateImageBySniff checks the provided filename (extension) and the first
// bytes (head) against a whitelist of image types. Returns detected mime or an
// error.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("only JPG, JPEG, PNG, GIF, WEBP, AVIF and BMP images are supported")
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("invalid file type: HTML content is not allowed")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		// Block SVG/XML until a sanitizer is available
		return "", errors.New("SVG/XML files are not supported for security reasons")
	}

	// Some formats (e.g., AVIF) may return octet-stream depending on Go version; allow by extension
	if detected == "application/octet-stream" && allowedExt[ext] {
		return detected, nil
	}

	if allowedMime[detected] {
		return detected, nil
	}

	return "", errors.New("the file type is not supported")
}

// ValidateSize rejects payloads over the direct upload ceiling.
func ValidateSize(size int64) error {
	if size > DirectUploadLimitBytes {
		return ErrTooLarge
	}
	return nil
}

// GenerateFileName derives a collision-resistant stored name from the
// original one: timestamp plus a random token, keeping the extension.
// Uniqueness is probabilistic; the database unique index on file_name is the
// final arbiter.
func GenerateFileName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	token := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), token, ext)
}

// JPEGName swaps the extension of originalName for ".jpg". The shrink stage
// re-encodes oversized buffers as JPEG regardless of the input format, so the
// stored name and recorded content type must follow the bytes, not the
// original extension.
func JPEGName(originalName string) string {
	ext := filepath.Ext(originalName)
	return strings.TrimSuffix(originalName, ext) + ".jpg"
}

// ContentTypeByExt returns the MIME type for a stored file name.
func ContentTypeByExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
