package render

import (
	"image"
	"image/png"
	"io"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// Snapshot writes img as PNG, downscaled to fit maxW x maxH while keeping its
// aspect ratio. Zero bounds or an image that already fits are written as is.
func Snapshot(w io.Writer, img image.Image, maxW, maxH int) error {
	out := img
	b := img.Bounds()
	if maxW > 0 && maxH > 0 && (b.Dx() > maxW || b.Dy() > maxH) {
		scale, _, _ := AspectFit(float64(maxW), float64(maxH), float64(b.Dx()), float64(b.Dy()))
		dw := max(1, int(float64(b.Dx())*scale))
		dh := max(1, int(float64(b.Dy())*scale))
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		out = dst
	}
	if err := png.Encode(w, out); err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	return nil
}
