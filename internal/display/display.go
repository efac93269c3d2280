// Package display shows uploaded frames in a window and owns the graphics
// context the uploader writes into.
package display

import "github.com/junsooki/lutview/internal/frame"

// Display renders frames until closed.
type Display interface {
	Run() error
	Close()
}

// FrameSink accepts decoded frames and lookup tables from producers.
type FrameSink interface {
	SetFrame(f *frame.Frame)
	SetLUT(buf []byte)
}

var _ Display = (*EbitenDisplay)(nil)
var _ FrameSink = (*EbitenDisplay)(nil)
