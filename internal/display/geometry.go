package display

import (
	"image"

	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/texture"
	"github.com/junsooki/lutview/internal/uploader"
)

// passGeometry describes how Pass lays out the uploaded textures. Every
// shader source is a Canvas sized image holding its texture in the top-left
// corner; only the Frame region of the output is shown.
type passGeometry struct {
	Frame   image.Point
	Chroma  image.Point
	LUT     image.Point
	Canvas  image.Point
	Sources [4]image.Point
}

// sourceTextures returns the Y, U, V and LUT textures of u in shader image order.
func sourceTextures(u *uploader.Uploader) ([4]texture.Texture, error) {
	var out [4]texture.Texture
	planes := u.Planes()
	copy(out[:3], planes[:])
	out[3] = u.LUT()
	for i, t := range out {
		if t == nil {
			return out, errors.Errorf("shader source %d is not allocated", i)
		}
	}
	return out, nil
}

func newPassGeometry(u *uploader.Uploader) (passGeometry, error) {
	var g passGeometry
	srcs, err := sourceTextures(u)
	if err != nil {
		return g, err
	}
	for i, t := range srcs {
		w, h := t.Size()
		g.Sources[i] = image.Pt(w, h)
		g.Canvas.X = max(g.Canvas.X, w)
		g.Canvas.Y = max(g.Canvas.Y, h)
	}
	g.Frame = g.Sources[frame.PlaneY]
	g.Chroma = g.Sources[frame.PlaneU]
	g.LUT = g.Sources[3]

	cfg := u.Config()
	if g.Frame != image.Pt(cfg.Width, cfg.Height) {
		return g, errors.Errorf("luma texture %v does not match frame %dx%d", g.Frame, cfg.Width, cfg.Height)
	}
	if g.Sources[frame.PlaneV] != g.Chroma {
		return g, errors.Errorf("chroma textures differ: %v and %v", g.Chroma, g.Sources[frame.PlaneV])
	}
	return g, nil
}

// checkSources reports an error unless every shader source has the canvas
// size; DrawRectShader panics otherwise.
func checkSources(canvas image.Point, sizes [4]image.Point) error {
	for i, s := range sizes {
		if s != canvas {
			return errors.Errorf("shader source %d is %v, want %v", i, s, canvas)
		}
	}
	return nil
}

// expandR8 writes each sample of src as an opaque gray RGBA pixel into dst.
func expandR8(dst, src []byte) {
	for i, v := range src {
		o := i * 4
		dst[o] = v
		dst[o+1] = v
		dst[o+2] = v
		dst[o+3] = 0xFF
	}
}

// collapseR8 copies the red channel of rgba into dst.
func collapseR8(dst, rgba []byte) {
	for i := range dst {
		dst[i] = rgba[i*4]
	}
}
