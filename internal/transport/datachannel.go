package transport

import (
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"

	internallog "github.com/junsooki/lutview/internal/logging"
)

// DataChannel labels.
const (
	LabelFrames = "frames"
	LabelLUT    = "lut"
)

// MaxBufferedAmount is the send backlog above which SendFrame drops frames.
const MaxBufferedAmount = 4 << 20

var (
	// ErrNotConnected is returned when the channel for a send is not set.
	ErrNotConnected = errors.New("data channel not set")
	// ErrBackpressure is returned when the frames channel backlog is full.
	ErrBackpressure = errors.New("frames channel backlog full")
)

// channel carries chunked messages over one DataChannel.
type channel struct {
	mu        sync.Mutex
	dc        *webrtc.DataChannel
	seq       atomic.Uint32
	assembler Assembler
	onMessage func(data []byte)
}

// DataChannelTransport implements frame and lut transport over WebRTC DataChannels.
type DataChannelTransport struct {
	frames    channel
	lut       channel
	chunkSize int
	log       logging.LeveledLogger
}

// NewDataChannelTransport wraps two DataChannels (frames + lut). Either may be
// nil and set later when the remote side opens it.
func NewDataChannelTransport(framesDC, lutDC *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{
		chunkSize: DefaultChunkSize,
		log:       internallog.NewLogger("transport"),
	}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	if lutDC != nil {
		t.SetLUTChannel(lutDC)
	}
	return t
}

func (t *DataChannelTransport) attach(c *channel, dc *webrtc.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.assembler = Assembler{}
	c.mu.Unlock()

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		c.mu.Lock()
		data, err := c.assembler.Add(msg.Data)
		cb := c.onMessage
		c.mu.Unlock()
		if err != nil {
			t.log.Warnf("%s: %v", dc.Label(), err)
			return
		}
		if data != nil && cb != nil {
			cb(data)
		}
	})
}

func (t *DataChannelTransport) send(c *channel, data []byte) error {
	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()
	if dc == nil {
		return ErrNotConnected
	}

	chunks, err := Split(c.seq.Add(1), data, t.chunkSize)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := dc.Send(chunk); err != nil {
			return errors.Wrapf(err, "send on %s", dc.Label())
		}
	}
	return nil
}

// SendFrame sends an encoded frame. It returns ErrBackpressure without sending
// when the peer is not keeping up.
func (t *DataChannelTransport) SendFrame(data []byte) error {
	t.frames.mu.Lock()
	dc := t.frames.dc
	t.frames.mu.Unlock()
	if dc != nil && dc.BufferedAmount() > MaxBufferedAmount {
		return ErrBackpressure
	}
	return t.send(&t.frames, data)
}

// SendLUT sends an encoded lookup table.
func (t *DataChannelTransport) SendLUT(data []byte) error {
	return t.send(&t.lut, data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.frames.mu.Lock()
	defer t.frames.mu.Unlock()
	t.frames.onMessage = cb
}

func (t *DataChannelTransport) OnLUT(cb func(data []byte)) {
	t.lut.mu.Lock()
	defer t.lut.mu.Unlock()
	t.lut.onMessage = cb
}

// SetFramesChannel sets or replaces the frames DataChannel (used when receiving negotiated channels).
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.attach(&t.frames, dc)
}

// SetLUTChannel sets or replaces the lut DataChannel.
func (t *DataChannelTransport) SetLUTChannel(dc *webrtc.DataChannel) {
	t.attach(&t.lut, dc)
}

// DroppedFrames returns how many partially received frames were abandoned.
func (t *DataChannelTransport) DroppedFrames() uint64 {
	t.frames.mu.Lock()
	defer t.frames.mu.Unlock()
	return t.frames.assembler.Dropped()
}
