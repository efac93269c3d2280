package frame

import (
	"github.com/pkg/errors"
)

// Size returns the number of bytes a tightly packed w x h image occupies in f.
func Size(f Format, w, h int) (int, error) {
	switch f {
	case FormatI420, FormatI444, FormatNV12, FormatNV21:
	default:
		return 0, errors.Wrapf(ErrUnsupportedFormat, "size of %s", f)
	}
	if w <= 0 || h <= 0 {
		return 0, errors.Errorf("invalid frame size %dx%d", w, h)
	}
	cw, ch := ChromaSize(f, w, h)
	return w*h + 2*cw*ch, nil
}

// Decode interprets buf as a tightly packed w x h image in format f. Planar
// layouts alias buf; semi-planar layouts copy the chroma samples into new
// U and V planes so the result is always I420 or I444.
func Decode(f Format, buf []byte, w, h int) (*Frame, error) {
	size, err := Size(f, w, h)
	if err != nil {
		return nil, err
	}
	if len(buf) < size {
		return nil, errors.Errorf("frame length (%d) less than expected (%d)", len(buf), size)
	}

	yi := w * h
	cw, ch := ChromaSize(f, w, h)
	ci := cw * ch

	switch f {
	case FormatI420, FormatI444:
		return &Frame{
			Format:  f,
			Width:   w,
			Height:  h,
			Y:       buf[:yi:yi],
			U:       buf[yi : yi+ci : yi+ci],
			V:       buf[yi+ci : yi+2*ci : yi+2*ci],
			YStride: w,
			CStride: cw,
		}, nil
	}

	u := make([]byte, ci)
	v := make([]byte, ci)
	uv := buf[yi : yi+2*ci]
	for i := 0; i < ci; i++ {
		u[i] = uv[2*i]
		v[i] = uv[2*i+1]
	}
	if f == FormatNV21 {
		u, v = v, u
	}

	return &Frame{
		Format:  FormatI420,
		Width:   w,
		Height:  h,
		Y:       buf[:yi:yi],
		U:       u,
		V:       v,
		YStride: w,
		CStride: cw,
	}, nil
}
