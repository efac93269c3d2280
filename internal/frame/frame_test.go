package frame

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocatesTightPlanes(t *testing.T) {
	f, err := New(FormatI420, 5, 3)
	require.NoError(t, err)

	assert.Len(t, f.Y, 15)
	assert.Len(t, f.U, 6)
	assert.Len(t, f.V, 6)
	assert.Equal(t, 5, f.YStride)
	assert.Equal(t, 3, f.CStride)
	assert.NoError(t, f.Validate())
}

func TestNewRejectsSemiPlanar(t *testing.T) {
	_, err := New(FormatNV12, 2, 2)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(f *Frame)
		wantErr string
	}{
		"Valid": {
			mutate: func(f *Frame) {},
		},
		"ZeroWidth": {
			mutate:  func(f *Frame) { f.Width = 0 },
			wantErr: "invalid frame size 0x4",
		},
		"ShortY": {
			mutate:  func(f *Frame) { f.Y = f.Y[:10] },
			wantErr: "plane Y length (10) less than expected (16)",
		},
		"ShortV": {
			mutate:  func(f *Frame) { f.V = f.V[:1] },
			wantErr: "plane V length (1) less than expected (4)",
		},
		"NarrowStride": {
			mutate:  func(f *Frame) { f.CStride = 1 },
			wantErr: "plane U stride (1) less than width (2)",
		},
		"Format": {
			mutate:  func(f *Frame) { f.Format = FormatNV21 },
			wantErr: "unsupported pixel format",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := New(FormatI420, 4, 4)
			require.NoError(t, err)
			c.mutate(f)

			err = f.Validate()
			if c.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.wantErr)
		})
	}
}

func TestValidateRejectsOverflowingStride(t *testing.T) {
	for _, p := range Planes {
		f, err := New(FormatI420, 4, 4)
		require.NoError(t, err)
		// stride*(h-1)+w wraps negative without the bound check
		switch p {
		case PlaneY:
			f.YStride = math.MaxInt / 3
		default:
			f.CStride = math.MaxInt
		}
		err = f.Validate()
		require.Error(t, err, p.String())
		assert.Contains(t, err.Error(), "too large")
		assert.NotPanics(t, func() { _ = f.Validate() })
	}
}

func TestPackPlaneStripsStride(t *testing.T) {
	f := &Frame{
		Format: FormatI444,
		Width:  2,
		Height: 2,
		Y: []byte{
			1, 2, 0xEE,
			3, 4,
		},
		U:       []byte{5, 6, 0xEE, 7, 8},
		V:       []byte{9, 10, 0xEE, 11, 12},
		YStride: 3,
		CStride: 3,
	}
	require.NoError(t, f.Validate())

	assert.Equal(t, []byte{1, 2, 3, 4}, f.PackPlane(PlaneY, nil))
	assert.Equal(t, []byte{5, 6, 7, 8}, f.PackPlane(PlaneU, nil))

	dst := make([]byte, 0, 16)
	out := f.PackPlane(PlaneV, dst)
	assert.Equal(t, []byte{9, 10, 11, 12}, out)
	assert.Equal(t, 16, cap(out), "should reuse dst")
}

func TestFromYCbCr(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 4, 2), image.YCbCrSubsampleRatio420)
	for i := range img.Y {
		img.Y[i] = byte(i)
	}
	img.Cb[1] = 0x80
	img.Cr[0] = 0x40

	f, err := FromYCbCr(img)
	require.NoError(t, err)

	assert.Equal(t, FormatI420, f.Format)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Equal(t, img.Y, f.PackPlane(PlaneY, nil))
	assert.Equal(t, []byte{0x00, 0x80}, f.PackPlane(PlaneU, nil))
	assert.Equal(t, []byte{0x40, 0x00}, f.PackPlane(PlaneV, nil))
}

func TestFromYCbCrRejects422(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 4, 2), image.YCbCrSubsampleRatio422)
	_, err := FromYCbCr(img)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
