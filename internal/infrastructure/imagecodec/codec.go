package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"design-checker/internal/domain/entity"

	"github.com/disintegration/imaging"
)

var ErrEmptyImage = errors.New("empty image")

// Decode reads PNG or JPEG data into a non-premultiplied RGBA capture.
func Decode(data []byte) (*entity.CapturedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	return FromImage(img)
}

func FromImage(img image.Image) (*entity.CapturedImage, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	nrgba := imaging.Clone(img)
	return &entity.CapturedImage{
		Width:  nrgba.Rect.Dx(),
		Height: nrgba.Rect.Dy(),
		Pix:    nrgba.Pix,
	}, nil
}

func ToImage(c *entity.CapturedImage) *image.NRGBA {
	return &image.NRGBA{
		Pix:    c.Pix,
		Stride: c.Width * 4,
		Rect:   image.Rect(0, 0, c.Width, c.Height),
	}
}

func EncodePNG(w io.Writer, c *entity.CapturedImage) error {
	if err := png.Encode(w, ToImage(c)); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	return nil
}

func LoadFile(path string) (*entity.CapturedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Thumbnail scales c down to maxWidth, keeping the aspect ratio. Smaller
// images are returned as-is.
func Thumbnail(c *entity.CapturedImage, maxWidth int) *entity.CapturedImage {
	if maxWidth <= 0 || c.Width <= maxWidth {
		return c
	}
	resized := imaging.Resize(ToImage(c), maxWidth, 0, imaging.Lanczos)
	return &entity.CapturedImage{
		Width:  resized.Rect.Dx(),
		Height: resized.Rect.Dy(),
		Pix:    resized.Pix,
	}
}
