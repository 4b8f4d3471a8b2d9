package imageprocessor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Thumbnail sizing and layout.
const (
	SmallThumbnailSize = 200
	ThumbnailsDir      = "uploads/thumbnails"
	thumbnailQuality   = 85
)

// ThumbnailName maps an image file name to its WebP thumbnail name.
func ThumbnailName(fileName string) string {
	ext := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, ext) + ".webp"
}

// ThumbnailPath returns the on-disk path of a thumbnail for fileName.
func ThumbnailPath(fileName string) string {
	return filepath.Join(ThumbnailsDir, ThumbnailName(fileName))
}

// CreateThumbnail decodes data, scales it down and writes a WebP thumbnail
// for the admin image listing. Thumbnail failures never fail an upload; the
// caller only loses the preview.
func CreateThumbnail(fileName string, data []byte) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("error decoding image for thumbnail: %w", err)
	}

	thumb := imaging.Resize(img, SmallThumbnailSize, 0, imaging.Lanczos)

	outputPath := ThumbnailPath(fileName)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("error creating thumbnail directory: %w", err)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating thumbnail file: %w", err)
	}
	defer output.Close()

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, thumbnailQuality)
	if err != nil {
		return fmt.Errorf("error creating encoder options: %w", err)
	}
	if err := webp.Encode(output, thumb, options); err != nil {
		return fmt.Errorf("error encoding WebP thumbnail: %w", err)
	}

	log.Infof("[Thumbnail] Created %s", outputPath)
	return nil
}
