// Package transport moves encoded frames and lookup tables between peers.
package transport

// FrameSender sends encoded video frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded video frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}

// LUTSender sends encoded lookup tables.
type LUTSender interface {
	SendLUT(data []byte) error
}

// LUTReceiver receives encoded lookup tables.
type LUTReceiver interface {
	OnLUT(callback func(data []byte))
}

var (
	_ FrameSender   = (*DataChannelTransport)(nil)
	_ FrameReceiver = (*DataChannelTransport)(nil)
	_ LUTSender     = (*DataChannelTransport)(nil)
	_ LUTReceiver   = (*DataChannelTransport)(nil)
)
