// Package photo turns uploaded check-in photos into bounded JPEGs.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"net/http"

	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-presensi/pkg/apierror"
)

const (
	ContentType = "image/jpeg"
	Extension   = ".jpg"

	jpegQuality = 85
	maxPixels   = 50_000_000
)

type Processor struct {
	maxBytes     int64
	maxDimension int
}

func NewProcessor(maxBytes int64, maxDimension int) *Processor {
	return &Processor{maxBytes: maxBytes, maxDimension: maxDimension}
}

func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// Normalize decodes data, scales it so the longer side is at most
// maxDimension and re-encodes it as JPEG. Metadata such as EXIF location is
// not carried over.
func (p *Processor) Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, apierror.Validation("photo is empty", "")
	}
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil, apierror.New(apierror.CodePayloadTooLarge,
			fmt.Sprintf("photo exceeds %d bytes", p.maxBytes), "", http.StatusRequestEntityTooLarge)
	}

	mimeType := DetectMIME(data)
	if !IsDecodableMIME(mimeType) {
		return nil, apierror.New(apierror.CodeUnsupportedMedia,
			"photo must be a JPEG, PNG, GIF, WebP, BMP or TIFF image", mimeType, http.StatusUnsupportedMediaType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apierror.New(apierror.CodeUnsupportedMedia, "cannot decode photo", err.Error(), http.StatusUnsupportedMediaType)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, apierror.Validation("photo dimensions are not acceptable", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apierror.New(apierror.CodeUnsupportedMedia, "cannot decode photo", err.Error(), http.StatusUnsupportedMediaType)
	}

	dst := p.scale(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Processor) scale(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	maxDim := max(width, height)

	scale := 1.0
	if p.maxDimension > 0 && maxDim > p.maxDimension {
		scale = float64(p.maxDimension) / float64(maxDim)
	}

	targetWidth := max(int(math.Round(float64(width)*scale)), 1)
	targetHeight := max(int(math.Round(float64(height)*scale)), 1)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	// JPEG has no alpha; flatten transparent areas onto white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
