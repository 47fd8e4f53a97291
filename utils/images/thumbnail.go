// Package images prepares picture thumbnails for spreadsheets.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	// additional decoders
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	thumbnailQuality = 85
	thumbnailDPI     = 96
)

// ErrNotImage is returned for files which are not recognized as pictures.
var ErrNotImage = errors.New("not an image")

// Thumbnail is encoded preview of a picture.
type Thumbnail struct {
	Data   []byte
	Ext    string
	Width  int
	Height int
}

// MakeThumbnail reads picture file and fits it into width x height box
// keeping aspect ratio. Pictures are never enlarged. Transparent areas are
// flattened onto white.
func MakeThumbnail(path string, width, height int) (*Thumbnail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, kind.MIME.Value)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", kind.MIME.Value, err)
	}

	b := img.Bounds()
	if b.Dx() > width || b.Dy() > height {
		img = imaging.Fit(img, width, height, imaging.Lanczos)
	}

	b = img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := image.Image(imaging.Overlay(bg, img, image.Pt(0, 0), 1.0))
	if g, ok := asGray(flat); ok {
		flat = g
	}

	out, err := EncodeJPEG(flat, thumbnailQuality, thumbnailDPI)
	if err != nil {
		return nil, fmt.Errorf("unable to encode thumbnail: %w", err)
	}
	return &Thumbnail{Data: out, Ext: ".jpg", Width: b.Dx(), Height: b.Dy()}, nil
}
