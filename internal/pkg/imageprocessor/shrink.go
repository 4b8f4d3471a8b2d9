package imageprocessor

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
)

// TargetCeilingBytes is the request-body limit of the hosting platform.
// Buffers above it are shrunk before being handed to a storage backend.
const TargetCeilingBytes = 4_718_592 // 4.5 MiB

const (
	firstPassQuality  = 85
	secondPassQuality = 70
	// Shrinking to exactly sqrt(target/current) would land right at the
	// ceiling; the margin keeps the first pass comfortably below it.
	scaleSafetyMargin = 0.9
)

// ShrinkResult describes the outcome of a shrink attempt.
type ShrinkResult struct {
	// Data is the buffer to store: re-encoded when shrinking happened,
	// the untouched input otherwise.
	Data []byte
	// Optimized reports whether Data differs from the input.
	Optimized bool
	// Width and Height are the dimensions of Data, zero when the input
	// could not be decoded.
	Width  int
	Height int
}

// FitUnderCeiling shrinks an image buffer so it fits under the hosting
// platform's body-size limit. Buffers already under the ceiling pass through
// byte-identical. The shrink is a heuristic: the image is scaled by
// sqrt(target/current) with a safety margin and re-encoded as JPEG at quality
// 85, then once more at quality 70 if still too large. A buffer that resists
// both passes is returned oversized; decode failures fail open and return the
// input unchanged.
func FitUnderCeiling(data []byte) *ShrinkResult {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		if int64(len(data)) > TargetCeilingBytes {
			log.Warnf("[Shrink] Cannot decode %d byte buffer, storing as-is: %v", len(data), err)
		}
		return &ShrinkResult{Data: data}
	}

	bounds := img.Bounds()
	result := &ShrinkResult{
		Data:   data,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if int64(len(data)) <= TargetCeilingBytes {
		return result
	}

	scale := math.Sqrt(float64(TargetCeilingBytes)/float64(len(data))) * scaleSafetyMargin
	newWidth := int(float64(bounds.Dx()) * scale)
	if newWidth < 1 {
		newWidth = 1
	}

	// Resize preserves the aspect ratio when height is zero.
	resized := imaging.Resize(img, newWidth, 0, imaging.Lanczos)

	encoded, err := encodeJPEG(resized, firstPassQuality)
	if err != nil {
		log.Errorf("[Shrink] First-pass encode failed, storing original: %v", err)
		return result
	}

	if int64(len(encoded)) > TargetCeilingBytes {
		second, err := encodeJPEG(resized, secondPassQuality)
		if err == nil {
			encoded = second
		} else {
			log.Errorf("[Shrink] Second-pass encode failed: %v", err)
		}
	}

	if int64(len(encoded)) > TargetCeilingBytes {
		// Already-compressed inputs can resist both passes; proceed with
		// the oversized result rather than failing the upload.
		log.Warnf("[Shrink] Buffer still %d bytes after two passes (ceiling %d)", len(encoded), TargetCeilingBytes)
	}

	log.Infof("[Shrink] %dx%d (%d bytes) -> %dx%d (%d bytes)",
		bounds.Dx(), bounds.Dy(), len(data),
		resized.Bounds().Dx(), resized.Bounds().Dy(), len(encoded))

	result.Data = encoded
	result.Optimized = true
	result.Width = resized.Bounds().Dx()
	result.Height = resized.Bounds().Dy()
	return result
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Dimensions reports the pixel dimensions of an encoded image buffer.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
