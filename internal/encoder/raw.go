package encoder

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
)

// RawEncoder writes frames uncompressed.
type RawEncoder struct{}

// NewRawEncoder creates a raw frame encoder.
func NewRawEncoder() *RawEncoder {
	return &RawEncoder{}
}

func (e *RawEncoder) Encode(f *frame.Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var code byte
	switch f.Format {
	case frame.FormatI420:
		code = FormatCodeI420
	case frame.FormatI444:
		code = FormatCodeI444
	}
	if f.Width > math.MaxUint16 || f.Height > math.MaxUint16 {
		return nil, errors.Errorf("frame %dx%d exceeds wire limits", f.Width, f.Height)
	}

	size, err := frame.Size(f.Format, f.Width, f.Height)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, FrameHeaderSize, FrameHeaderSize+size)
	copy(buf, FrameMagic[:])
	buf[4] = Version
	buf[5] = code
	binary.BigEndian.PutUint16(buf[6:], uint16(f.Width))
	binary.BigEndian.PutUint16(buf[8:], uint16(f.Height))

	for _, p := range frame.Planes {
		n := len(buf)
		w, h := f.PlaneSize(p)
		buf = buf[:n+w*h]
		// capacity was reserved above, so the plane is packed in place
		f.PackPlane(p, buf[n:n])
	}
	return buf, nil
}

func (e *RawEncoder) EncodeLUT(t *lut.Table) ([]byte, error) {
	if !lut.ValidDimension(t.Dimension) || len(t.Data) != lut.Size(t.Dimension) {
		return nil, errors.Errorf("malformed lut: dimension %d, %d bytes", t.Dimension, len(t.Data))
	}
	buf := make([]byte, LUTHeaderSize+len(t.Data))
	copy(buf, LUTMagic[:])
	buf[4] = Version
	buf[5] = byte(t.Dimension)
	copy(buf[LUTHeaderSize:], t.Data)
	return buf, nil
}
