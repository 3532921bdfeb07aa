package badge

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/aegatekeeper/backend/internal/apperr"
)

func pngDataURL(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeResult(t *testing.T, dataURL string) image.Image {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("result is not a PNG data URL: %.40s", dataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[len(prefix):])
	if err != nil {
		t.Fatalf("decode result payload: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode result image: %v", err)
	}
	return img
}

func TestStylizeScalesAndPosterizes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x*2 + 37), G: uint8(y*3 + 11), B: 0x7F, A: 0xFF})
		}
	}

	out := decodeResult(t, mustStylize(t, pngDataURL(t, src)))

	bounds := out.Bounds()
	if bounds.Dx() != stylizedWidth {
		t.Errorf("width = %d, want %d", bounds.Dx(), stylizedWidth)
	}
	if bounds.Dy() != stylizedWidth/2 {
		t.Errorf("height = %d, want aspect-preserving %d", bounds.Dy(), stylizedWidth/2)
	}

	// Every channel value must sit on a posterization level.
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 17 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 17 {
			r, g, b, _ := out.At(x, y).RGBA()
			for _, v := range []uint32{r >> 8, g >> 8, b >> 8} {
				if v&^uint32(posterizeMask) != 0 {
					t.Fatalf("channel value %d at (%d,%d) is not posterized", v, x, y)
				}
			}
		}
	}
}

func mustStylize(t *testing.T, dataURL string) string {
	t.Helper()
	out, err := Stylize(dataURL)
	if err != nil {
		t.Fatalf("stylize: %v", err)
	}
	return out
}

func TestStylizeRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not a data url",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,%%%%",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image")),
	}
	for _, input := range cases {
		_, err := Stylize(input)
		var verr *apperr.Validation
		if !errors.As(err, &verr) {
			t.Errorf("input %.30q: expected validation error, got %v", input, err)
		}
	}
}

func TestFreeBadgeWithoutPhoto(t *testing.T) {
	badge := NewService(nil).FreeBadge("", "Talked their way in")

	if badge.Portrait != "" {
		t.Error("no photo should mean no portrait")
	}
	if badge.Score != FreeBadgeScore {
		t.Errorf("score = %g, want %g", badge.Score, FreeBadgeScore)
	}
	if badge.Paid {
		t.Error("free badge must not be marked paid")
	}
	if badge.Tagline != "Talked their way in" {
		t.Errorf("tagline = %q", badge.Tagline)
	}
}

func TestFreeBadgeStylizesPhoto(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	badge := NewService(nil).FreeBadge(pngDataURL(t, src), "tagline")
	if !strings.HasPrefix(badge.Portrait, "data:image/png;base64,") {
		t.Errorf("portrait is not a PNG data URL: %.40s", badge.Portrait)
	}
}

func TestPaidBadgeWithoutGenerator(t *testing.T) {
	_, err := NewService(nil).PaidBadge(context.Background(), "a person", 0.1, "Paid 0.1 AE")
	var cerr *apperr.Config
	if !errors.As(err, &cerr) {
		t.Errorf("expected config error, got %v", err)
	}
}
