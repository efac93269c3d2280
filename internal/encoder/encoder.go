// Package encoder serializes frames and lookup tables for the wire.
//
// Frame message:
//
//	"YUVF" | version u8 | format u8 | width u16 | height u16 | Y | U | V
//
// LUT message:
//
//	"YLUT" | version u8 | dimension u8 | table
//
// Integers are big endian; planes and tables are tightly packed.
package encoder

import (
	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
)

// Wire constants shared with the decoder.
const (
	Version         = 1
	FrameHeaderSize = 10
	LUTHeaderSize   = 6
)

var (
	FrameMagic = [4]byte{'Y', 'U', 'V', 'F'}
	LUTMagic   = [4]byte{'Y', 'L', 'U', 'T'}
)

// Format codes on the wire.
const (
	FormatCodeI420 byte = 0
	FormatCodeI444 byte = 1
)

// Encoder encodes a frame into bytes.
type Encoder interface {
	Encode(f *frame.Frame) ([]byte, error)
}

// LUTEncoder encodes a lookup table into bytes.
type LUTEncoder interface {
	EncodeLUT(t *lut.Table) ([]byte, error)
}
