// Package uploader moves decoded YUV frames and color lookup tables into the
// textures sampled by the render pass.
//
// An Uploader owns two sets of plane textures and two LUT textures. Each call
// writes the back set and swaps it to the front only when every transfer
// succeeded, so a failed call leaves the bound textures untouched. Calls must
// come from the goroutine that drives the graphics context; the uploader never
// retains the buffers it is given.
package uploader

import (
	"sync"

	"github.com/pion/logging"
	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/frame"
	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/lut"
	"github.com/junsooki/lutview/internal/texture"
)

// Config fixes the texture geometry.
type Config struct {
	Width        int
	Height       int
	Format       frame.Format // FormatI420 when empty
	LUTDimension int          // lut.DefaultDimension when zero
}

func (c Config) withDefaults() Config {
	if c.Format == "" {
		c.Format = frame.FormatI420
	}
	if c.LUTDimension == 0 {
		c.LUTDimension = lut.DefaultDimension
	}
	return c
}

// LUTSize returns the LUT buffer length UpdateLUT accepts.
func (c Config) LUTSize() int {
	return lut.Size(c.withDefaults().LUTDimension)
}

type planeSet [len(frame.Planes)]texture.Texture

// Uploader is the frame texture uploader.
type Uploader struct {
	mu       sync.Mutex
	cfg      Config
	front    planeSet
	back     planeSet
	lutFront texture.Texture
	lutBack  texture.Texture
	scratch  []byte
	loaded   bool
	log      logging.LeveledLogger
}

// New allocates the plane and LUT textures in ctx. The LUT starts as the
// identity table.
func New(ctx texture.Context, cfg Config) (*Uploader, error) {
	cfg = cfg.withDefaults()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("invalid texture size %dx%d", cfg.Width, cfg.Height)
	}
	if !cfg.Format.Planar() {
		return nil, errors.Wrapf(frame.ErrUnsupportedFormat, "texture format %s", cfg.Format)
	}
	if !lut.ValidDimension(cfg.LUTDimension) {
		return nil, errors.Wrapf(lut.ErrInvalidDimension, "dimension %d", cfg.LUTDimension)
	}

	u := &Uploader{
		cfg: cfg,
		log: internallog.NewLogger("uploader"),
	}
	if err := u.allocate(ctx); err != nil {
		u.Close()
		return nil, err
	}
	if err := u.lutFront.Write(lut.Identity(cfg.LUTDimension).Data); err != nil {
		u.Close()
		return nil, &UploadError{Target: "lut", Err: err}
	}
	u.log.Debugf("allocated %dx%d %s textures, lut %d^3", cfg.Width, cfg.Height, cfg.Format, cfg.LUTDimension)
	return u, nil
}

func (u *Uploader) allocate(ctx texture.Context) error {
	for _, set := range []*planeSet{&u.front, &u.back} {
		for _, p := range frame.Planes {
			w, h := u.planeSize(p)
			tex, err := ctx.NewTexture(w, h, texture.FormatR8)
			if err != nil {
				return errors.Wrapf(err, "allocate %s plane", p)
			}
			set[p] = tex
		}
	}

	w, h := lut.TextureSize(u.cfg.LUTDimension)
	var err error
	if u.lutFront, err = ctx.NewTexture(w, h, texture.FormatRGBA8); err != nil {
		return errors.Wrap(err, "allocate lut")
	}
	if u.lutBack, err = ctx.NewTexture(w, h, texture.FormatRGBA8); err != nil {
		return errors.Wrap(err, "allocate lut")
	}
	return nil
}

func (u *Uploader) planeSize(p frame.Plane) (int, int) {
	if p == frame.PlaneY {
		return u.cfg.Width, u.cfg.Height
	}
	return frame.ChromaSize(u.cfg.Format, u.cfg.Width, u.cfg.Height)
}

// Config returns the geometry the uploader was created with.
func (u *Uploader) Config() Config {
	return u.cfg
}

// LoadFrame uploads the three planes of f. It fails with
// ErrInvalidFrameDimensions when f does not match the configured geometry and
// with ErrUploadFailure when the context rejects a transfer. On failure the
// previously loaded frame stays bound.
func (u *Uploader) LoadFrame(f *frame.Frame) error {
	if f == nil {
		return errors.Wrap(ErrInvalidFrameDimensions, "nil frame")
	}
	if f.Width != u.cfg.Width || f.Height != u.cfg.Height {
		return errors.Wrapf(ErrInvalidFrameDimensions, "frame %dx%d, texture %dx%d",
			f.Width, f.Height, u.cfg.Width, u.cfg.Height)
	}
	if f.Format != u.cfg.Format {
		return errors.Wrapf(ErrInvalidFrameDimensions, "frame format %s, texture format %s", f.Format, u.cfg.Format)
	}
	if err := f.Validate(); err != nil {
		return errors.Wrap(ErrInvalidFrameDimensions, err.Error())
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, p := range frame.Planes {
		u.scratch = f.PackPlane(p, u.scratch)
		if err := u.back[p].Write(u.scratch); err != nil {
			u.log.Warnf("%s plane upload failed: %v", p, err)
			return &UploadError{Target: p.String() + " plane", Err: err}
		}
	}
	u.front, u.back = u.back, u.front
	u.loaded = true
	return nil
}

// UpdateLUT uploads buf as the new lookup table. len(buf) must equal
// Config.LUTSize.
func (u *Uploader) UpdateLUT(buf []byte) error {
	if want := u.cfg.LUTSize(); len(buf) != want {
		return errors.Wrapf(ErrInvalidLUTSize, "lut length (%d), expected (%d)", len(buf), want)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.lutBack.Write(buf); err != nil {
		u.log.Warnf("lut upload failed: %v", err)
		return &UploadError{Target: "lut", Err: err}
	}
	u.lutFront, u.lutBack = u.lutBack, u.lutFront
	return nil
}

// Loaded reports whether a frame has been uploaded since creation.
func (u *Uploader) Loaded() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loaded
}

// Planes returns the textures holding the current frame, indexed by frame.Plane.
func (u *Uploader) Planes() [3]texture.Texture {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.front
}

// LUT returns the texture holding the current lookup table.
func (u *Uploader) LUT() texture.Texture {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lutFront
}

// ReadPlane reads back the current contents of plane p, tightly packed.
func (u *Uploader) ReadPlane(p frame.Plane) ([]byte, error) {
	tex := u.Planes()[p]
	buf := make([]byte, texture.ByteSize(tex))
	if err := tex.Read(buf); err != nil {
		return nil, errors.Wrapf(err, "read %s plane", p)
	}
	return buf, nil
}

// ReadLUT reads back the current lookup table.
func (u *Uploader) ReadLUT() ([]byte, error) {
	tex := u.LUT()
	buf := make([]byte, texture.ByteSize(tex))
	if err := tex.Read(buf); err != nil {
		return nil, errors.Wrap(err, "read lut")
	}
	return buf, nil
}

// Close releases every texture.
func (u *Uploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, set := range []*planeSet{&u.front, &u.back} {
		for i, tex := range set {
			if tex != nil {
				tex.Dispose()
				set[i] = nil
			}
		}
	}
	for _, tex := range []*texture.Texture{&u.lutFront, &u.lutBack} {
		if *tex != nil {
			(*tex).Dispose()
			*tex = nil
		}
	}
}
