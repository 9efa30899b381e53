package picture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

// noisyImage produces a JPEG that resists compression, so the size limit
// loop actually has work to do.
func noisyImage(t *testing.T, w, h int, quality int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 7 % 256),
				G: uint8(y * 13 % 256),
				B: uint8((x ^ y) % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestResizeToDataURI(t *testing.T) {
	raw := noisyImage(t, 640, 480, 90)

	uri, err := ResizeToDataURI(raw)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("uri prefix = %q", uri[:30])
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	if img.Bounds().Dx() != FrameWidth || img.Bounds().Dy() != FrameHeight {
		t.Errorf("dimensions = %dx%d, want %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), FrameWidth, FrameHeight)
	}
}

func TestResizeToDataURIKeepsPNG(t *testing.T) {
	uri, err := ResizeToDataURI(pngImage(t, 100, 100))
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("png input must stay png, got %q", uri[:30])
	}
}

func TestResizeToDataURIRejectsGarbage(t *testing.T) {
	if _, err := ResizeToDataURI([]byte("not an image")); err == nil {
		t.Errorf("garbage input must fail")
	}
}

func TestCompressToLimitPassesSmallImages(t *testing.T) {
	raw := noisyImage(t, 64, 64, 50)

	out, err := CompressToLimit(raw, 200)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Errorf("images already under the limit must pass through untouched")
	}
}

func TestCompressToLimitShrinksLargeImages(t *testing.T) {
	raw := noisyImage(t, 1200, 1600, 100)
	limitKB := 40
	if len(raw) <= limitKB*1024 {
		t.Skipf("fixture unexpectedly small: %d bytes", len(raw))
	}

	out, err := CompressToLimit(raw, limitKB)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(out) > limitKB*1024 {
		t.Errorf("result %d bytes exceeds %dKB", len(out), limitKB)
	}
	if _, _, err := image.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("result must stay a decodable image: %v", err)
	}
}

func TestDecodeBase64Image(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	b64 := base64.StdEncoding.EncodeToString(payload)

	plain, err := DecodeBase64Image(b64)
	if err != nil || !bytes.Equal(plain, payload) {
		t.Fatalf("plain decode failed: %v", err)
	}

	withPrefix, err := DecodeBase64Image("data:image/jpeg;base64," + b64)
	if err != nil || !bytes.Equal(withPrefix, payload) {
		t.Fatalf("data-URI decode failed: %v", err)
	}

	if _, err := DecodeBase64Image("!!not base64!!"); err == nil {
		t.Errorf("invalid base64 must fail")
	}
}
