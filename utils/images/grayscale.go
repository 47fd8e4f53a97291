package images

import (
	"image"
	"image/color"
)

// IsGrayscale reports whether every pixel of img has equal color channels.
func IsGrayscale(img image.Image) bool {
	_, ok := asGray(img)
	return ok
}

// asGray converts img to single channel image in one pass, giving up at the
// first colored pixel. Scanned pages are often stored as RGB and shrink
// noticeably as gray JPEG.
func asGray(img image.Image) (*image.Gray, bool) {
	switch src := img.(type) {
	case *image.Gray:
		return src, true
	case *image.NRGBA:
		b := src.Bounds()
		dst := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
			out := dst.Pix[dst.PixOffset(b.Min.X, y):]
			for i := 0; i+3 < len(row); i += 4 {
				if row[i] != row[i+1] || row[i+1] != row[i+2] {
					return nil, false
				}
				out[i/4] = row[i]
			}
		}
		return dst, true
	}

	b := img.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.R != c.G || c.G != c.B {
				return nil, false
			}
			dst.SetGray(x, y, color.Gray{Y: c.R})
		}
	}
	return dst, true
}
