// Package texture abstracts GPU-resident images behind a small upload/readback
// interface so the uploader can run against ebiten or an in-memory context.
package texture

import (
	"fmt"

	"github.com/pkg/errors"
)

// Format is the texel layout of data passed to Write and Read.
type Format int

const (
	// FormatR8 holds one byte per texel. Used for Y, U and V planes.
	FormatR8 Format = iota
	// FormatRGBA8 holds four bytes per texel. Used for the LUT strip.
	FormatRGBA8
)

// BytesPerPixel returns the texel size of f.
func (f Format) BytesPerPixel() int {
	if f == FormatRGBA8 {
		return 4
	}
	return 1
}

func (f Format) String() string {
	switch f {
	case FormatR8:
		return "R8"
	case FormatRGBA8:
		return "RGBA8"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var (
	// ErrContextLost is returned when the owning graphics context can no
	// longer accept transfers.
	ErrContextLost = errors.New("graphics context lost")
	// ErrDisposed is returned for operations on a disposed texture.
	ErrDisposed = errors.New("texture disposed")
)

// Texture is an image resident in a graphics context.
type Texture interface {
	Size() (int, int)
	Format() Format
	// Write replaces the whole texture. len(pix) must be w*h*BytesPerPixel.
	Write(pix []byte) error
	// Read copies the whole texture into pix.
	Read(pix []byte) error
	Dispose()
}

// Context creates textures. Implementations are bound to the goroutine that
// drives rendering.
type Context interface {
	NewTexture(width, height int, format Format) (Texture, error)
}

// ByteSize returns the buffer length Write and Read expect for t.
func ByteSize(t Texture) int {
	w, h := t.Size()
	return w * h * t.Format().BytesPerPixel()
}

// CheckLen verifies that pix is exactly ByteSize(t) long.
func CheckLen(t Texture, pix []byte) error {
	if want := ByteSize(t); len(pix) != want {
		return errors.Errorf("texture buffer length (%d) does not match expected (%d)", len(pix), want)
	}
	return nil
}
