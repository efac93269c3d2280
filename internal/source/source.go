// Package source produces decoded frames for the sender from raw YUV files.
package source

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/junsooki/lutview/internal/frame"
	internallog "github.com/junsooki/lutview/internal/logging"
)

// MaxFPS bounds the pacing rate.
const MaxFPS = 240

// ErrRunning is returned by Start on a source that was already started.
var ErrRunning = errors.New("source already started")

// Frame is a decoded frame with its sequence number and capture time.
type Frame struct {
	*frame.Frame
	Seq       uint64
	Timestamp time.Time
}

// Options configures a FileSource.
type Options struct {
	Format frame.Format
	Width  int
	Height int
	FPS    int
	// Loop rewinds to the first frame at end of file instead of stopping.
	Loop bool
}

// FileSource reads tightly packed raw frames from a file at a fixed rate.
type FileSource struct {
	fs   afero.Fs
	path string
	opts Options
	size int

	frameCh chan *Frame
	stopCh  chan struct{}
	once    sync.Once
	started atomic.Bool
	dropped atomic.Uint64
	log     logging.LeveledLogger
}

// NewFileSource validates opts against the file at path.
func NewFileSource(fs afero.Fs, path string, opts Options) (*FileSource, error) {
	if opts.FPS <= 0 || opts.FPS > MaxFPS {
		return nil, errors.Errorf("fps must be 1-%d, got %d", MaxFPS, opts.FPS)
	}
	size, err := frame.Size(opts.Format, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat source")
	}
	if info.Size() < int64(size) {
		return nil, errors.Errorf("%s holds %d bytes, less than one %dx%d %s frame (%d)",
			path, info.Size(), opts.Width, opts.Height, opts.Format, size)
	}
	return &FileSource{
		fs:      fs,
		path:    path,
		opts:    opts,
		size:    size,
		frameCh: make(chan *Frame, 2),
		stopCh:  make(chan struct{}),
		log:     internallog.NewLogger("source"),
	}, nil
}

// FrameSize is the byte size of one frame in the file.
func (s *FileSource) FrameSize() int { return s.size }

// Frames returns the channel frames are delivered on. It is closed when the
// source stops or reaches end of file without Loop.
func (s *FileSource) Frames() <-chan *Frame {
	return s.frameCh
}

// Dropped is the number of frames discarded because the consumer was behind.
func (s *FileSource) Dropped() uint64 {
	return s.dropped.Load()
}

// Start opens the file and begins delivering frames until ctx is done, Stop
// is called, or the file ends.
func (s *FileSource) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrRunning
	}
	f, err := s.fs.Open(s.path)
	if err != nil {
		close(s.frameCh)
		return errors.Wrap(err, "open source")
	}
	go s.loop(ctx, f)
	return nil
}

// Stop ends delivery. Safe to call more than once.
func (s *FileSource) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *FileSource) loop(ctx context.Context, f afero.File) {
	defer close(s.frameCh)
	defer f.Close()

	ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			fr, err := s.read(f)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.log.Errorf("read frame %d: %v", seq, err)
					return
				}
				if !s.opts.Loop {
					s.log.Infof("end of %s after %d frames", s.path, seq)
					return
				}
				if _, err := f.Seek(0, io.SeekStart); err != nil {
					s.log.Errorf("rewind %s: %v", s.path, err)
					return
				}
				if fr, err = s.read(f); err != nil {
					s.log.Errorf("read frame %d after rewind: %v", seq, err)
					return
				}
			}
			seq++
			select {
			case s.frameCh <- &Frame{Frame: fr, Seq: seq, Timestamp: time.Now()}:
			default:
				s.dropped.Add(1)
			}
		}
	}
}

// read returns io.EOF when fewer than one frame of bytes remain; a trailing
// partial frame is ignored.
func (s *FileSource) read(f io.Reader) (*frame.Frame, error) {
	buf := make([]byte, s.size)
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return frame.Decode(s.opts.Format, buf, s.opts.Width, s.opts.Height)
}
