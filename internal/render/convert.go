// Package render converts YUV planes to RGB and maps them through a LUT in
// software, with the coefficients the display shader uses. It backs
// snapshots and checks of uploaded texture state.
package render

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
	"github.com/junsooki/lutview/internal/uploader"
)

// YUVToRGB converts one BT.601 limited-range sample. The shader uses the same
// coefficients.
func YUVToRGB(y, u, v uint8) (uint8, uint8, uint8) {
	c := int(y) - 16
	d := int(u) - 128
	e := int(v) - 128
	r := (298*c + 409*e + 128) >> 8
	g := (298*c - 100*d - 208*e + 128) >> 8
	b := (298*c + 516*d + 128) >> 8
	return clamp8(r), clamp8(g), clamp8(b)
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Convert renders f through table. A nil table leaves colors unmapped.
func Convert(f *frame.Frame, table *lut.Table) (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	cw, ch := f.PlaneSize(frame.PlaneU)
	for yy := 0; yy < f.Height; yy++ {
		cy := yy * ch / f.Height
		for xx := 0; xx < f.Width; xx++ {
			cx := xx * cw / f.Width
			Y := f.Y[yy*f.YStride+xx]
			U := f.U[cy*f.CStride+cx]
			V := f.V[cy*f.CStride+cx]
			r, g, b := YUVToRGB(Y, U, V)
			if table != nil {
				r, g, b = table.Sample(r, g, b)
			}
			o := img.PixOffset(xx, yy)
			img.Pix[o] = r
			img.Pix[o+1] = g
			img.Pix[o+2] = b
			img.Pix[o+3] = 0xFF
		}
	}
	return img, nil
}

// ConvertUploaded reads back the textures bound in u and renders them in
// software with the same trilinear lut lookup the shader pass performs.
func ConvertUploaded(u *uploader.Uploader) (*image.RGBA, error) {
	if !u.Loaded() {
		return nil, errors.New("no frame uploaded")
	}
	cfg := u.Config()
	f := &frame.Frame{Format: cfg.Format, Width: cfg.Width, Height: cfg.Height}
	var err error
	if f.Y, err = u.ReadPlane(frame.PlaneY); err != nil {
		return nil, err
	}
	if f.U, err = u.ReadPlane(frame.PlaneU); err != nil {
		return nil, err
	}
	if f.V, err = u.ReadPlane(frame.PlaneV); err != nil {
		return nil, err
	}
	f.YStride = cfg.Width
	f.CStride, _ = f.PlaneSize(frame.PlaneU)

	data, err := u.ReadLUT()
	if err != nil {
		return nil, err
	}
	table, err := lut.New(cfg.LUTDimension, data)
	if err != nil {
		return nil, err
	}
	return Convert(f, table)
}

// AspectFit returns the scale and offsets that fit a frame into a view with
// letterboxing.
func AspectFit(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
