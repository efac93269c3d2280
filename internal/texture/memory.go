package texture

import (
	"sync"

	"github.com/pkg/errors"
)

// Memory is a Context whose textures live in process memory. It backs headless
// runs and tests, and can simulate context loss.
type Memory struct {
	mu         sync.Mutex
	lost       bool
	writesLeft int // writes accepted before the context is lost; <0 disables
	live       int
}

// NewMemory creates an in-memory context.
func NewMemory() *Memory {
	return &Memory{writesLeft: -1}
}

// Lose marks the context lost. Every following transfer fails.
func (m *Memory) Lose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lost = true
}

// Restore clears a simulated loss.
func (m *Memory) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lost = false
	m.writesLeft = -1
}

// LoseAfter lets n more writes succeed, then loses the context.
func (m *Memory) LoseAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writesLeft = n
}

// Live returns the number of textures not yet disposed.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *Memory) NewTexture(width, height int, format Format) (Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid texture size %dx%d", width, height)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lost {
		return nil, ErrContextLost
	}
	m.live++
	return &memoryTexture{
		ctx:    m,
		width:  width,
		height: height,
		format: format,
		pix:    make([]byte, width*height*format.BytesPerPixel()),
	}, nil
}

func (m *Memory) acceptWrite() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lost {
		return ErrContextLost
	}
	if m.writesLeft == 0 {
		m.lost = true
		return ErrContextLost
	}
	if m.writesLeft > 0 {
		m.writesLeft--
	}
	return nil
}

func (m *Memory) isLost() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lost
}

type memoryTexture struct {
	ctx      *Memory
	width    int
	height   int
	format   Format
	pix      []byte
	disposed bool
}

func (t *memoryTexture) Size() (int, int) { return t.width, t.height }

func (t *memoryTexture) Format() Format { return t.format }

func (t *memoryTexture) Write(pix []byte) error {
	if t.disposed {
		return ErrDisposed
	}
	if err := CheckLen(t, pix); err != nil {
		return err
	}
	if err := t.ctx.acceptWrite(); err != nil {
		return err
	}
	copy(t.pix, pix)
	return nil
}

func (t *memoryTexture) Read(pix []byte) error {
	if t.disposed {
		return ErrDisposed
	}
	if err := CheckLen(t, pix); err != nil {
		return err
	}
	if t.ctx.isLost() {
		return ErrContextLost
	}
	copy(pix, t.pix)
	return nil
}

func (t *memoryTexture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.ctx.mu.Lock()
	t.ctx.live--
	t.ctx.mu.Unlock()
}
