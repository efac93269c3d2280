// Package decoder parses wire messages produced by the encoder package.
package decoder

import (
	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
)

// Decoder decodes bytes into a frame.
type Decoder interface {
	Decode(data []byte) (*frame.Frame, error)
}

// LUTDecoder decodes bytes into a lookup table.
type LUTDecoder interface {
	DecodeLUT(data []byte) (*lut.Table, error)
}
