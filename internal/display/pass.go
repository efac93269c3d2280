package display

import (
	_ "embed"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/render"
	"github.com/junsooki/lutview/internal/texture"
	"github.com/junsooki/lutview/internal/uploader"
)

//go:embed yuv.kage
var shaderSource []byte

// Pass draws the uploaded frame through the YUV to RGB shader, mapping the
// result through the bound LUT.
//
// DrawRectShader requires every source image to have the rectangle's size,
// so the textures are copied into canvas sized staging images first and the
// shader renders into an offscreen canvas of which the frame region is shown.
type Pass struct {
	shader  *ebiten.Shader
	canvas  image.Point
	staging [4]*ebiten.Image
	out     *ebiten.Image
}

// NewPass compiles the shader.
func NewPass() (*Pass, error) {
	s, err := ebiten.NewShader(shaderSource)
	if err != nil {
		return nil, errors.Wrap(err, "compile yuv shader")
	}
	return &Pass{shader: s}, nil
}

func ebitenImage(t texture.Texture) (*ebiten.Image, error) {
	et, ok := t.(*EbitenTexture)
	if !ok {
		return nil, errors.Errorf("texture %T is not ebiten-backed", t)
	}
	return et.Image(), nil
}

func (p *Pass) ensureCanvas(c image.Point) {
	if c == p.canvas && p.out != nil {
		return
	}
	p.release()
	for i := range p.staging {
		p.staging[i] = ebiten.NewImage(c.X, c.Y)
	}
	p.out = ebiten.NewImage(c.X, c.Y)
	p.canvas = c
}

func (p *Pass) release() {
	for i, img := range p.staging {
		if img != nil {
			img.Deallocate()
			p.staging[i] = nil
		}
	}
	if p.out != nil {
		p.out.Deallocate()
		p.out = nil
	}
	p.canvas = image.Point{}
}

// Draw renders the textures bound in u onto dst, letterboxed. It draws nothing
// until a frame has been loaded.
func (p *Pass) Draw(dst *ebiten.Image, u *uploader.Uploader) error {
	if !u.Loaded() {
		return nil
	}
	g, err := newPassGeometry(u)
	if err != nil {
		return err
	}
	srcs, err := sourceTextures(u)
	if err != nil {
		return err
	}
	p.ensureCanvas(g.Canvas)

	op := &ebiten.DrawRectShaderOptions{}
	var sizes [4]image.Point
	for i, tex := range srcs {
		img, err := ebitenImage(tex)
		if err != nil {
			return err
		}
		p.staging[i].DrawImage(img, &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy})
		op.Images[i] = p.staging[i]
		sizes[i] = p.staging[i].Bounds().Size()
	}
	if err := checkSources(g.Canvas, sizes); err != nil {
		return err
	}

	op.Uniforms = map[string]any{
		"FrameSize":    []float32{float32(g.Frame.X), float32(g.Frame.Y)},
		"ChromaSize":   []float32{float32(g.Chroma.X), float32(g.Chroma.Y)},
		"LUTDimension": float32(u.Config().LUTDimension),
	}
	p.out.DrawRectShader(g.Canvas.X, g.Canvas.Y, p.shader, op)

	frameImg := p.out.SubImage(image.Rectangle{Max: g.Frame}).(*ebiten.Image)
	b := dst.Bounds()
	scale, offsetX, offsetY := render.AspectFit(float64(b.Dx()), float64(b.Dy()), float64(g.Frame.X), float64(g.Frame.Y))
	draw := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	draw.GeoM.Scale(scale, scale)
	draw.GeoM.Translate(offsetX, offsetY)
	dst.DrawImage(frameImg, draw)
	return nil
}

// Dispose releases the compiled shader and staging images.
func (p *Pass) Dispose() {
	p.release()
	p.shader.Deallocate()
}
