package peer

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// relay delivers signaling messages between two in-process peers, in order,
// on its own goroutine.
type relay struct {
	queue  chan func()
	done   chan struct{}
	sender *Sender
	viewer *Viewer
}

func newRelay() *relay {
	r := &relay{queue: make(chan func(), 64), done: make(chan struct{})}
	go func() {
		for {
			select {
			case fn := <-r.queue:
				fn()
			case <-r.done:
				return
			}
		}
	}()
	return r
}

func (r *relay) post(fn func()) {
	select {
	case r.queue <- fn:
	case <-r.done:
	}
}

func (r *relay) close() { close(r.done) }

// toSender implements Signaler for the viewer side.
type toSender struct{ *relay }

func (s toSender) SendOffer(target string, payload json.RawMessage) error {
	s.post(func() { _ = s.sender.HandleOffer("viewer", payload) })
	return nil
}

func (s toSender) SendAnswer(string, json.RawMessage) error { return nil }

func (s toSender) SendICECandidate(target string, payload json.RawMessage) error {
	s.post(func() { _ = s.sender.HandleICECandidate(payload) })
	return nil
}

// toViewer implements Signaler for the sender side.
type toViewer struct{ *relay }

func (s toViewer) SendOffer(string, json.RawMessage) error { return nil }

func (s toViewer) SendAnswer(target string, payload json.RawMessage) error {
	s.post(func() { _ = s.viewer.HandleAnswer(payload) })
	return nil
}

func (s toViewer) SendICECandidate(target string, payload json.RawMessage) error {
	s.post(func() { _ = s.viewer.HandleICECandidate(payload) })
	return nil
}

func TestSenderToViewerLoopback(t *testing.T) {
	if testing.Short() {
		t.Skip("opens real peer connections")
	}

	r := newRelay()
	defer r.close()

	sender, err := NewSender(toViewer{r}, nil)
	require.NoError(t, err)
	defer sender.Close()
	viewer, err := NewViewer(toSender{r}, "sender", nil)
	require.NoError(t, err)
	defer viewer.Close()
	r.sender, r.viewer = sender, viewer

	lutMsg := bytes.Repeat([]byte{0xAB}, 40*1024)
	frameMsg := make([]byte, 100*1024)
	for i := range frameMsg {
		frameMsg[i] = byte(i)
	}

	gotLUT := make(chan []byte, 1)
	gotFrame := make(chan []byte, 1)
	viewer.Transport().OnLUT(func(data []byte) {
		select {
		case gotLUT <- data:
		default:
		}
	})
	viewer.Transport().OnFrame(func(data []byte) {
		select {
		case gotFrame <- data:
		default:
		}
	})

	ready := make(chan struct{})
	sender.OnReady(func() { close(ready) })

	require.NoError(t, viewer.Connect())

	select {
	case <-ready:
	case <-time.After(20 * time.Second):
		t.Fatal("lut channel never opened")
	}
	require.NoError(t, sender.Transport().SendLUT(lutMsg))

	// Frames are unreliable; keep sending until one lands.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(20 * time.Second)
	var frame []byte
	for frame == nil {
		select {
		case frame = <-gotFrame:
		case <-ticker.C:
			_ = sender.Transport().SendFrame(frameMsg)
		case <-timeout:
			t.Fatal("no frame received")
		}
	}
	assert.Equal(t, frameMsg, frame)

	select {
	case data := <-gotLUT:
		assert.Equal(t, lutMsg, data)
	case <-time.After(10 * time.Second):
		t.Fatal("no lut received")
	}
}
