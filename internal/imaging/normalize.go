// Package imaging bounds profile image payloads before they are persisted.
//
// Binary input is decoded, scaled down so the longer side fits MaxDimension,
// flattened onto white and re-encoded as a JPEG data URL. Remote URLs are only
// checked for shape and stored as given.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"portrait/internal/models"
)

const (
	DefaultMaxDimension        = 600
	DefaultQuality             = 70
	DefaultMaxInputBytes int64 = 10 << 20 // 10 MiB

	outputDataURLPrefix = "data:image/jpeg;base64,"
)

// Source identifies where a normalized value came from.
type Source string

const (
	SourceFile Source = "file"
	SourceURL  Source = "url"
)

// Normalized is a storable profile image value.
type Normalized struct {
	Value  string
	Width  int
	Height int
	Source Source
}

// Normalizer turns raw image input into a bounded storable value.
type Normalizer struct {
	MaxDimension  int
	Quality       int
	MaxInputBytes int64
}

// New returns a Normalizer with default bounds.
func New() *Normalizer {
	return &Normalizer{
		MaxDimension:  DefaultMaxDimension,
		Quality:       DefaultQuality,
		MaxInputBytes: DefaultMaxInputBytes,
	}
}

func (n *Normalizer) maxDimension() int {
	if n == nil || n.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return n.MaxDimension
}

func (n *Normalizer) quality() int {
	if n == nil || n.Quality <= 0 || n.Quality > 100 {
		return DefaultQuality
	}
	return n.Quality
}

func (n *Normalizer) maxInputBytes() int64 {
	if n == nil || n.MaxInputBytes <= 0 {
		return DefaultMaxInputBytes
	}
	return n.MaxInputBytes
}

// Normalize dispatches on the shape of source: http(s) URLs are validated,
// data URLs are decoded and re-encoded, anything else is read with open.
// A nil open reads from the local filesystem.
func (n *Normalizer) Normalize(source string, open func(string) ([]byte, error)) (Normalized, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Normalized{}, fmt.Errorf("%w: image source is required", models.ErrInvalidInput)
	}

	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return n.NormalizeURL(source)
	case strings.HasPrefix(lower, "data:"):
		return n.NormalizeDataURL(source)
	}

	if open == nil {
		open = os.ReadFile
	}
	data, err := open(source)
	if err != nil {
		return Normalized{}, fmt.Errorf("read image %s: %w", source, err)
	}
	return n.NormalizeBytes(data)
}

// NormalizeURL accepts an absolute http(s) URL as-is.
func (n *Normalizer) NormalizeURL(raw string) (Normalized, error) {
	raw = strings.TrimSpace(raw)
	if !models.IsRemoteImageURL(raw) {
		return Normalized{}, fmt.Errorf("%w: %q is not an absolute http(s) url", models.ErrInvalidInput, raw)
	}
	return Normalized{Value: raw, Source: SourceURL}, nil
}

// NormalizeDataURL decodes a base64 image data URL and normalizes its payload.
func (n *Normalizer) NormalizeDataURL(raw string) (Normalized, error) {
	if !models.IsInlineImage(raw) {
		return Normalized{}, fmt.Errorf("%w: not a base64 image data url", models.ErrDecodeFailure)
	}
	raw = strings.TrimSpace(raw)
	payload := raw[strings.IndexByte(raw, ',')+1:]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Normalized{}, fmt.Errorf("%w: %v", models.ErrDecodeFailure, err)
	}
	return n.NormalizeBytes(data)
}

// NormalizeBytes decodes image bytes, bounds their dimensions and re-encodes them as JPEG.
func (n *Normalizer) NormalizeBytes(data []byte) (Normalized, error) {
	if len(data) == 0 {
		return Normalized{}, fmt.Errorf("%w: image data is empty", models.ErrInvalidInput)
	}
	if limit := n.maxInputBytes(); int64(len(data)) > limit {
		return Normalized{}, fmt.Errorf("%w: image is %d bytes, limit is %d", models.ErrInvalidInput, len(data), limit)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Normalized{}, fmt.Errorf("%w: unsupported content type %s", models.ErrDecodeFailure, mt.String())
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("%w: %v", models.ErrDecodeFailure, err)
	}

	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), n.maxDimension())
	if width == 0 || height == 0 {
		return Normalized{}, fmt.Errorf("%w: image has no pixels", models.ErrDecodeFailure)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.quality()}); err != nil {
		return Normalized{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Normalized{
		Value:  outputDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  width,
		Height: height,
		Source: SourceFile,
	}, nil
}

// FitWithin scales (w, h) so the longer side equals limit when it exceeds it,
// preserving aspect ratio. Smaller images are returned unchanged.
func FitWithin(w, h, limit int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, scaledSide(h, w, limit)
	}
	return scaledSide(w, h, limit), limit
}

func scaledSide(short, long, limit int) int {
	scaled := int(math.Round(float64(short) * float64(limit) / float64(long)))
	if scaled < 1 {
		return 1
	}
	return scaled
}
