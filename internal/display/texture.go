package display

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/texture"
)

// TextureContext is a texture.Context backed by ebiten images. R8 textures
// are stored as gray RGBA images so the shader reads the sample from the red
// channel.
type TextureContext struct {
	lost atomic.Bool
}

// NewTextureContext creates an ebiten-backed context. Textures may only be
// read back once the game loop is running.
func NewTextureContext() *TextureContext {
	return &TextureContext{}
}

// Lose marks the context unusable, for example once the game loop has exited.
func (e *TextureContext) Lose() {
	e.lost.Store(true)
}

func (e *TextureContext) NewTexture(width, height int, format texture.Format) (tex texture.Texture, err error) {
	if e.lost.Load() {
		return nil, texture.ErrContextLost
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid texture size %dx%d", width, height)
	}
	defer recoverLost(&err)
	img := ebiten.NewImageWithOptions(image.Rect(0, 0, width, height), nil)
	return &EbitenTexture{
		ctx:    e,
		img:    img,
		width:  width,
		height: height,
		format: format,
	}, nil
}

// EbitenTexture is a texture.Texture backed by an *ebiten.Image.
type EbitenTexture struct {
	ctx      *TextureContext
	img      *ebiten.Image
	width    int
	height   int
	format   texture.Format
	scratch  []byte
	disposed bool
}

// Image exposes the backing image to render passes.
func (t *EbitenTexture) Image() *ebiten.Image { return t.img }

func (t *EbitenTexture) Size() (int, int) { return t.width, t.height }

func (t *EbitenTexture) Format() texture.Format { return t.format }

func (t *EbitenTexture) usable() error {
	if t.disposed {
		return texture.ErrDisposed
	}
	if t.ctx.lost.Load() {
		return texture.ErrContextLost
	}
	return nil
}

func (t *EbitenTexture) Write(pix []byte) (err error) {
	if err := t.usable(); err != nil {
		return err
	}
	if err := texture.CheckLen(t, pix); err != nil {
		return err
	}
	defer recoverLost(&err)

	if t.format == texture.FormatRGBA8 {
		t.img.WritePixels(pix)
		return nil
	}
	rgba := t.rgbaScratch()
	expandR8(rgba, pix)
	t.img.WritePixels(rgba)
	return nil
}

func (t *EbitenTexture) Read(pix []byte) (err error) {
	if err := t.usable(); err != nil {
		return err
	}
	if err := texture.CheckLen(t, pix); err != nil {
		return err
	}
	defer recoverLost(&err)

	if t.format == texture.FormatRGBA8 {
		t.img.ReadPixels(pix)
		return nil
	}
	rgba := t.rgbaScratch()
	t.img.ReadPixels(rgba)
	collapseR8(pix, rgba)
	return nil
}

func (t *EbitenTexture) rgbaScratch() []byte {
	n := t.width * t.height * 4
	if cap(t.scratch) < n {
		t.scratch = make([]byte, n)
	}
	return t.scratch[:n]
}

func (t *EbitenTexture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.img.Deallocate()
}

// recoverLost turns a panic raised by the graphics driver into texture.ErrContextLost.
func recoverLost(err *error) {
	if r := recover(); r != nil {
		*err = errors.Wrap(texture.ErrContextLost, fmt.Sprint(r))
	}
}
