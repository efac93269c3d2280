// Package frame models decoded planar YUV frames as produced by a video decoder.
package frame

import (
	"fmt"
	"image"
	"math"

	"github.com/pkg/errors"
)

// Format names a pixel layout.
type Format string

const (
	// FormatI420 is planar Y, U, V with chroma subsampled 2x2.
	FormatI420 Format = "I420"
	// FormatI444 is planar Y, U, V without subsampling.
	FormatI444 Format = "I444"
	// FormatNV12 is a Y plane followed by interleaved U/V samples subsampled 2x2.
	FormatNV12 Format = "NV12"
	// FormatNV21 is FormatNV12 with V before U.
	FormatNV21 Format = "NV21"
)

// ErrUnsupportedFormat is returned for layouts a Frame cannot hold.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// Planar reports whether a Frame can carry f directly. Semi-planar formats are
// only accepted by Decode, which splits the chroma plane.
func (f Format) Planar() bool {
	return f == FormatI420 || f == FormatI444
}

// Plane identifies one channel of a planar frame.
type Plane int

const (
	PlaneY Plane = iota
	PlaneU
	PlaneV
)

// Planes lists the planes in upload order.
var Planes = [...]Plane{PlaneY, PlaneU, PlaneV}

func (p Plane) String() string {
	switch p {
	case PlaneY:
		return "Y"
	case PlaneU:
		return "U"
	case PlaneV:
		return "V"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

// Frame is a planar YUV image. Plane rows start every stride bytes; only the
// first PlaneSize width bytes of a row are pixel data.
type Frame struct {
	Format  Format
	Width   int
	Height  int
	Y       []byte
	U       []byte
	V       []byte
	YStride int
	CStride int
}

// ChromaSize returns the chroma plane geometry of a w x h image in format f.
func ChromaSize(f Format, w, h int) (int, int) {
	switch f {
	case FormatI444:
		return w, h
	default:
		return (w + 1) / 2, (h + 1) / 2
	}
}

// New allocates a zeroed frame with tightly packed planes.
func New(format Format, width, height int) (*Frame, error) {
	if !format.Planar() {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "new frame %s", format)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", width, height)
	}
	cw, ch := ChromaSize(format, width, height)
	return &Frame{
		Format:  format,
		Width:   width,
		Height:  height,
		Y:       make([]byte, width*height),
		U:       make([]byte, cw*ch),
		V:       make([]byte, cw*ch),
		YStride: width,
		CStride: cw,
	}, nil
}

// PlaneSize returns the pixel geometry of plane p.
func (f *Frame) PlaneSize(p Plane) (int, int) {
	if p == PlaneY {
		return f.Width, f.Height
	}
	return ChromaSize(f.Format, f.Width, f.Height)
}

// Plane returns the backing buffer of p.
func (f *Frame) Plane(p Plane) []byte {
	switch p {
	case PlaneU:
		return f.U
	case PlaneV:
		return f.V
	default:
		return f.Y
	}
}

// Stride returns the row pitch of p.
func (f *Frame) Stride(p Plane) int {
	if p == PlaneY {
		return f.YStride
	}
	return f.CStride
}

// Validate checks that the geometry is consistent with the plane buffers.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.New("nil frame")
	}
	if !f.Format.Planar() {
		return errors.Wrapf(ErrUnsupportedFormat, "frame %s", f.Format)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	for _, p := range Planes {
		w, h := f.PlaneSize(p)
		stride := f.Stride(p)
		if stride < w {
			return errors.Errorf("plane %s stride (%d) less than width (%d)", p, stride, w)
		}
		if stride > math.MaxInt/h {
			return errors.Errorf("plane %s stride (%d) too large for height (%d)", p, stride, h)
		}
		need := stride*(h-1) + w
		if got := len(f.Plane(p)); got < need {
			return errors.Errorf("plane %s length (%d) less than expected (%d)", p, got, need)
		}
	}
	return nil
}

// PackPlane copies plane p into dst with stride padding removed, growing dst
// when it is too small. The returned slice has length w*h.
func (f *Frame) PackPlane(p Plane, dst []byte) []byte {
	w, h := f.PlaneSize(p)
	n := w * h
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	src := f.Plane(p)
	stride := f.Stride(p)
	if stride == w {
		copy(dst, src[:n])
		return dst
	}
	for row := 0; row < h; row++ {
		copy(dst[row*w:(row+1)*w], src[row*stride:row*stride+w])
	}
	return dst
}

// FromYCbCr wraps img without copying. Only 4:2:0 and 4:4:4 subsampling map
// onto a Frame.
func FromYCbCr(img *image.YCbCr) (*Frame, error) {
	var format Format
	switch img.SubsampleRatio {
	case image.YCbCrSubsampleRatio420:
		format = FormatI420
	case image.YCbCrSubsampleRatio444:
		format = FormatI444
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "subsample ratio %v", img.SubsampleRatio)
	}

	r := img.Rect
	yi := img.YOffset(r.Min.X, r.Min.Y)
	ci := img.COffset(r.Min.X, r.Min.Y)
	f := &Frame{
		Format:  format,
		Width:   r.Dx(),
		Height:  r.Dy(),
		Y:       img.Y[yi:],
		U:       img.Cb[ci:],
		V:       img.Cr[ci:],
		YStride: img.YStride,
		CStride: img.CStride,
	}
	return f, f.Validate()
}
