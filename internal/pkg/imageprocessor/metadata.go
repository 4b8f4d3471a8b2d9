package imageprocessor

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractMetadata pulls camera model and capture time out of the EXIF block,
// best-effort. Most menu photos are phone shots and carry both; images
// without EXIF are not an error.
func ExtractMetadata(image *models.Image, data []byte) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		log.Infof("No EXIF data found for image %s: %v", image.FileName, err)
		return
	}

	if m, err := x.Get(exif.Model); err == nil {
		s := strings.TrimSpace(strings.Trim(m.String(), `"`))
		if s != "" {
			image.CameraModel = &s
		}
	}

	if dt, err := x.DateTime(); err == nil {
		image.TakenAt = &dt
	}
}
