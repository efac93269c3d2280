package display

import (
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pion/logging"

	"github.com/junsooki/lutview/internal/frame"
	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/sink"
	"github.com/junsooki/lutview/internal/uploader"
)

// Options configures the window.
type Options struct {
	Title        string
	Width        int
	Height       int
	LUTDimension int
}

// EbitenDisplay renders received frames with Ebitengine. Frames and LUTs may
// be handed over from any goroutine; uploads happen inside Draw.
type EbitenDisplay struct {
	opts   Options
	sink   *sink.Sink
	ctx    *TextureContext
	pass   *Pass
	closed atomic.Bool
	log    logging.LeveledLogger
}

// NewEbitenDisplay creates an Ebitengine-based display.
func NewEbitenDisplay(opts Options) *EbitenDisplay {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	return &EbitenDisplay{
		opts: opts,
		sink: sink.New(opts.LUTDimension),
		ctx:  NewTextureContext(),
		log:  internallog.NewLogger("display"),
	}
}

// SetFrame queues a decoded frame (called from network goroutine). The display
// takes ownership of f.
func (d *EbitenDisplay) SetFrame(f *frame.Frame) {
	d.sink.SetFrame(f)
}

// SetLUT queues a new lookup table. The display takes ownership of buf.
func (d *EbitenDisplay) SetLUT(buf []byte) {
	d.sink.SetLUT(buf)
}

// OnFirstFrame runs cb on the render goroutine after the first upload, when
// textures can be read back.
func (d *EbitenDisplay) OnFirstFrame(cb func(u *uploader.Uploader)) {
	d.sink.OnFirstFrame(cb)
}

// Stats returns the frame counters.
func (d *EbitenDisplay) Stats() sink.Stats {
	return d.sink.Stats()
}

// Close ends the game loop at the next tick.
func (d *EbitenDisplay) Close() {
	d.closed.Store(true)
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(d.opts.Width, d.opts.Height)
	ebiten.SetWindowTitle(d.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	pass, err := NewPass()
	if err != nil {
		return err
	}
	d.pass = pass
	defer func() {
		d.sink.Close()
		d.ctx.Lose()
		d.pass.Dispose()
	}()
	return ebiten.RunGame(d)
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	if d.closed.Load() {
		return ebiten.Termination
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	up, err := d.sink.Flush(d.ctx)
	if err != nil {
		d.log.Debugf("flush: %v", err)
	}
	if up == nil {
		return
	}
	if err := d.pass.Draw(screen, up); err != nil {
		d.log.Errorf("draw: %v", err)
	}
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
