// Package imaging compresses uploaded product images and stores them under
// the public uploads directory.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "image/gif" // register decoders
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	TargetWidth = 800
	JPEGQuality = 70
	// MaxUploadSize bounds the raw upload accepted by handlers.
	MaxUploadSize = 5 << 20
)

// Compress decodes a JPEG, PNG or GIF image, scales it to TargetWidth with
// the height following the aspect ratio, and re-encodes it as JPEG.
func Compress(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}
	height := b.Dy() * TargetWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// AllowedExtension reports whether filename has an image extension the
// upload endpoint accepts.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpeg", ".jpg", ".png", ".gif":
		return true
	}
	return false
}

// Store writes compressed images to Dir and builds their public URLs.
type Store struct {
	Dir        string
	PublicHost string
}

// Save compresses the image read from r into Dir and returns its URL.
func (s Store) Save(r io.Reader) (string, error) {
	data, err := Compress(r)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := "compressed-" + uuid.NewString() + ".jpeg"
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return fmt.Sprintf("http://%s/uploads/%s", s.PublicHost, name), nil
}

// Remove deletes the image behind a URL returned by Save. A missing file is
// not an error.
func (s Store) Remove(url string) error {
	name := path.Base(url)
	if !strings.HasPrefix(name, "compressed-") {
		return fmt.Errorf("not a stored image: %s", url)
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}
