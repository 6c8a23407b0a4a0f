// Package cover normalises book cover images. Covers arrive from the desk
// client as data URLs (pasted or picked files) or as plain http(s) links.
package cover

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	MaxWidth  = 400
	MaxHeight = 600
	Quality   = 85

	// MaxEncodedBytes bounds the incoming data URL payload
	MaxEncodedBytes = 8 << 20
)

var (
	ErrUnsupportedFormat = errors.New("format gambar tidak didukung")
	ErrTooLarge          = errors.New("ukuran gambar terlalu besar")
	ErrInvalidDataURL    = errors.New("data URL tidak valid")
)

// Normalize returns the stored form of a cover. Empty strings and http(s)
// links are returned unchanged; data URLs are decoded, fitted into
// MaxWidth×MaxHeight and re-encoded as a JPEG data URL.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}
	if !strings.HasPrefix(raw, "data:") {
		return "", ErrInvalidDataURL
	}

	comma := strings.IndexByte(raw, ',')
	if comma < 0 || !strings.Contains(raw[:comma], ";base64") {
		return "", ErrInvalidDataURL
	}
	payload := raw[comma+1:]
	if len(payload) > MaxEncodedBytes {
		return "", ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidDataURL
	}

	img, err := decode(data)
	if err != nil {
		return "", err
	}

	out, err := encodeJPEG(fit(img))
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(out), nil
}

func decode(data []byte) (image.Image, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	var (
		img image.Image
		err error
	)
	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ct)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return img, nil
}

// fit downsizes keeping the aspect ratio; smaller images are left alone
func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxWidth && b.Dy() <= MaxHeight {
		return img
	}
	return imaging.Fit(img, MaxWidth, MaxHeight, imaging.CatmullRom)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
