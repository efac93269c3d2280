// Package sink hands decoded frames and LUTs from producer goroutines to the
// goroutine that owns the graphics context.
//
// A Sink holds at most one pending frame and one pending LUT. A newer frame
// replaces an unconsumed one; latency wins over completeness.
package sink

import (
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/frame"
	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/lut"
	"github.com/junsooki/lutview/internal/texture"
	"github.com/junsooki/lutview/internal/uploader"
)

// Stats counts frames through the sink. LUTFailed counts rejected lookup
// tables and is separate from Failed, which counts frames.
type Stats struct {
	Received  uint64
	Uploaded  uint64
	Dropped   uint64
	Failed    uint64
	LUTFailed uint64
}

// Sink is a single-slot mailbox in front of an uploader.
type Sink struct {
	mu         sync.Mutex
	pending    *frame.Frame
	pendingLUT []byte

	// owned by the render goroutine
	up       *uploader.Uploader
	lut      []byte
	lutDim   int
	onFirst  func(u *uploader.Uploader)
	notified bool

	received atomic.Uint64
	uploaded atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
	lutFail  atomic.Uint64

	log logging.LeveledLogger
}

// New creates a sink whose uploaders sample LUTs of lutDim entries per axis.
func New(lutDim int) *Sink {
	if lutDim == 0 {
		lutDim = lut.DefaultDimension
	}
	return &Sink{
		lutDim: lutDim,
		log:    internallog.NewLogger("sink"),
	}
}

// OnFirstFrame registers cb to run on the render goroutine right after the
// first successful upload.
func (s *Sink) OnFirstFrame(cb func(u *uploader.Uploader)) {
	s.onFirst = cb
}

// SetFrame queues f for upload and takes ownership of its buffers. Safe to
// call from any goroutine.
func (s *Sink) SetFrame(f *frame.Frame) {
	s.received.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.dropped.Add(1)
	}
	s.pending = f
}

// SetLUT queues buf as the next lookup table and takes ownership of it.
func (s *Sink) SetLUT(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingLUT = buf
}

// Flush uploads whatever is pending into textures of ctx, (re)allocating the
// uploader when the frame geometry changes. It must run on the goroutine that
// owns ctx and returns the current uploader, which is nil until the first
// frame arrives.
func (s *Sink) Flush(ctx texture.Context) (*uploader.Uploader, error) {
	s.mu.Lock()
	f, buf := s.pending, s.pendingLUT
	s.pending, s.pendingLUT = nil, nil
	s.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if f != nil {
		keep(s.loadFrame(ctx, f))
	}
	if buf != nil {
		keep(s.updateLUT(buf))
	}
	return s.up, firstErr
}

func (s *Sink) loadFrame(ctx texture.Context, f *frame.Frame) error {
	if err := s.ensureUploader(ctx, f); err != nil {
		s.failed.Add(1)
		return err
	}
	if err := s.up.LoadFrame(f); err != nil {
		s.failed.Add(1)
		s.log.Debugf("load frame: %v (%s)", err, uploader.StatusOf(err))
		return err
	}
	s.uploaded.Add(1)

	if !s.notified {
		s.notified = true
		if s.onFirst != nil {
			s.onFirst(s.up)
		}
	}
	return nil
}

func (s *Sink) ensureUploader(ctx texture.Context, f *frame.Frame) error {
	if s.up != nil {
		cfg := s.up.Config()
		if cfg.Width == f.Width && cfg.Height == f.Height && cfg.Format == f.Format {
			return nil
		}
		s.log.Infof("frame geometry changed to %dx%d %s", f.Width, f.Height, f.Format)
		s.up.Close()
		s.up = nil
	}

	up, err := uploader.New(ctx, uploader.Config{
		Width:        f.Width,
		Height:       f.Height,
		Format:       f.Format,
		LUTDimension: s.lutDim,
	})
	if err != nil {
		return errors.Wrap(err, "create uploader")
	}
	s.up = up
	if s.lut != nil {
		if err := up.UpdateLUT(s.lut); err != nil {
			s.log.Warnf("reapply lut: %v", err)
		}
	}
	return nil
}

func (s *Sink) updateLUT(buf []byte) error {
	if s.up == nil {
		if want := lut.Size(s.lutDim); len(buf) != want {
			s.lutFail.Add(1)
			return errors.Wrapf(uploader.ErrInvalidLUTSize, "lut length (%d), expected (%d)", len(buf), want)
		}
		s.lut = buf
		return nil
	}
	if err := s.up.UpdateLUT(buf); err != nil {
		s.lutFail.Add(1)
		s.log.Warnf("update lut: %v (%s)", err, uploader.StatusOf(err))
		return err
	}
	s.lut = buf
	return nil
}

// Stats returns a snapshot of the counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Received:  s.received.Load(),
		Uploaded:  s.uploaded.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
		LUTFailed: s.lutFail.Load(),
	}
}

// Close releases the uploader. Call it from the render goroutine.
func (s *Sink) Close() {
	if s.up != nil {
		s.up.Close()
		s.up = nil
	}
}
