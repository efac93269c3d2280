package decoder

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/encoder"
	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
)

// ErrMalformed is returned for messages that do not follow the wire layout.
var ErrMalformed = errors.New("malformed message")

// RawDecoder decodes uncompressed frames. Decoded planes alias the input.
type RawDecoder struct{}

func NewRawDecoder() *RawDecoder {
	return &RawDecoder{}
}

func (d *RawDecoder) Decode(data []byte) (*frame.Frame, error) {
	if len(data) < encoder.FrameHeaderSize || !bytes.Equal(data[:4], encoder.FrameMagic[:]) {
		return nil, errors.Wrap(ErrMalformed, "frame header")
	}
	if data[4] != encoder.Version {
		return nil, errors.Wrapf(ErrMalformed, "frame version %d", data[4])
	}

	var format frame.Format
	switch data[5] {
	case encoder.FormatCodeI420:
		format = frame.FormatI420
	case encoder.FormatCodeI444:
		format = frame.FormatI444
	default:
		return nil, errors.Wrapf(ErrMalformed, "format code %d", data[5])
	}
	w := int(binary.BigEndian.Uint16(data[6:]))
	h := int(binary.BigEndian.Uint16(data[8:]))

	f, err := frame.Decode(format, data[encoder.FrameHeaderSize:], w, h)
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	return f, nil
}

func (d *RawDecoder) DecodeLUT(data []byte) (*lut.Table, error) {
	if len(data) < encoder.LUTHeaderSize || !bytes.Equal(data[:4], encoder.LUTMagic[:]) {
		return nil, errors.Wrap(ErrMalformed, "lut header")
	}
	if data[4] != encoder.Version {
		return nil, errors.Wrapf(ErrMalformed, "lut version %d", data[4])
	}
	n := int(data[5])
	t, err := lut.New(n, data[encoder.LUTHeaderSize:])
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	return t, nil
}
