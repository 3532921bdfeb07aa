package badge

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/aegatekeeper/backend/internal/apperr"
)

const (
	stylizedWidth = 512

	// Posterize keeps the top two bits of each channel, four levels.
	posterizeMask = 0xC0
)

// Stylize turns a guest photo data URL into the free-path badge portrait:
// scaled to a fixed width and posterized into flat color bands, then
// re-encoded as a PNG data URL.
func Stylize(dataURL string) (string, error) {
	img, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	scaled := scaleToWidth(img, stylizedWidth)
	posterize(scaled)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("encode portrait: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeDataURL(dataURL string) (image.Image, error) {
	const marker = ";base64,"
	idx := strings.Index(dataURL, marker)
	if !strings.HasPrefix(dataURL, "data:image/") || idx < 0 {
		return nil, apperr.Validationf("expected a base64 image data URL")
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len(marker):])
	if err != nil {
		return nil, apperr.Validationf("invalid base64 image payload: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Validationf("unsupported image format: %v", err)
	}
	return img, nil
}

// scaleToWidth resizes with nearest-neighbor sampling; posterization erases
// any interpolation detail anyway.
func scaleToWidth(src image.Image, width int) *image.RGBA {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	height := srcH * width / srcW
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + y*srcH/height
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + x*srcW/width
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}

func posterize(img *image.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: c.R & posterizeMask,
				G: c.G & posterizeMask,
				B: c.B & posterizeMask,
				A: c.A,
			})
		}
	}
}
