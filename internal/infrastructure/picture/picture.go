package picture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Monitor display resolution for captured frames
const (
	FrameWidth  = 297
	FrameHeight = 382
)

// ResizeToDataURI decodes a captured frame, resizes it to the monitor
// resolution and returns it as a data-URI base64 string. The original format
// is preserved when detectable, defaulting to JPEG.
func ResizeToDataURI(raw []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode frame: %w", err)
	}

	resized := imaging.Resize(img, FrameWidth, FrameHeight, imaging.Lanczos)

	var buf bytes.Buffer
	mime := "image/jpeg"
	switch format {
	case "png":
		mime = "image/png"
		err = imaging.Encode(&buf, resized, imaging.PNG)
	default:
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(90))
	}
	if err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CompressToLimit re-encodes a face image as JPEG under limitKB. Quality is
// stepped down first (95 to 10, step 5), then dimensions are scaled down
// (factor 0.9, step 0.05, floor 0.3). Returns an error only when the floor
// is hit and the image still does not fit.
func CompressToLimit(raw []byte, limitKB int) ([]byte, error) {
	if limitKB > 0 && len(raw) <= limitKB*1024 {
		return raw, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode face image: %w", err)
	}

	limit := limitKB * 1024
	quality := 95
	scale := 1.0
	width := img.Bounds().Dx()

	for {
		candidate := img
		if scale < 1.0 {
			candidate = imaging.Resize(img, int(float64(width)*scale), 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, candidate, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("encode face image: %w", err)
		}
		if buf.Len() <= limit {
			return buf.Bytes(), nil
		}

		if quality > 10 {
			quality -= 5
		} else if scale == 1.0 {
			scale = 0.9
		} else if scale > 0.3 {
			scale -= 0.05
		} else {
			return nil, fmt.Errorf("face image does not fit %dKB even at minimum quality", limitKB)
		}
	}
}

// DecodeBase64Image strips an optional data-URI prefix and decodes the
// base64 payload
func DecodeBase64Image(b64 string) ([]byte, error) {
	if strings.HasPrefix(b64, "data:") {
		if idx := strings.IndexByte(b64, ','); idx >= 0 {
			b64 = b64[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(b64)
}
