package uploader

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
	"github.com/junsooki/lutview/internal/texture"
)

func newTestUploader(t *testing.T, w, h, lutDim int) (*Uploader, *texture.Memory) {
	t.Helper()
	ctx := texture.NewMemory()
	u, err := New(ctx, Config{Width: w, Height: h, LUTDimension: lutDim})
	require.NoError(t, err)
	t.Cleanup(u.Close)
	return u, ctx
}

func randomFrame(t *testing.T, w, h int) *frame.Frame {
	t.Helper()
	f, err := frame.New(frame.FormatI420, w, h)
	require.NoError(t, err)
	for _, p := range frame.Planes {
		rand.Read(f.Plane(p))
	}
	return f
}

func requirePlanes(t *testing.T, u *Uploader, f *frame.Frame) {
	t.Helper()
	for _, p := range frame.Planes {
		got, err := u.ReadPlane(p)
		require.NoError(t, err)
		assert.Equal(t, f.PackPlane(p, nil), got, "plane %s", p)
	}
}

func TestNewAllocatesTextures(t *testing.T) {
	ctx := texture.NewMemory()
	u, err := New(ctx, Config{Width: 4, Height: 2})
	require.NoError(t, err)

	assert.Equal(t, 8, ctx.Live())
	assert.Equal(t, frame.FormatI420, u.Config().Format)
	assert.Equal(t, lut.Size(lut.DefaultDimension), u.Config().LUTSize())
	assert.False(t, u.Loaded())

	w, h := u.Planes()[frame.PlaneU].Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)

	u.Close()
	assert.Equal(t, 0, ctx.Live())
}

func TestNewStartsWithIdentityLUT(t *testing.T) {
	u, _ := newTestUploader(t, 2, 2, 4)

	got, err := u.ReadLUT()
	require.NoError(t, err)
	assert.Equal(t, lut.Identity(4).Data, got)
}

func TestNewRejectsBadConfig(t *testing.T) {
	ctx := texture.NewMemory()

	_, err := New(ctx, Config{Width: 0, Height: 2})
	assert.Error(t, err)
	_, err = New(ctx, Config{Width: 2, Height: 2, Format: frame.FormatNV12})
	assert.ErrorIs(t, err, frame.ErrUnsupportedFormat)
	_, err = New(ctx, Config{Width: 2, Height: 2, LUTDimension: 1})
	assert.ErrorIs(t, err, lut.ErrInvalidDimension)
	assert.Equal(t, 0, ctx.Live())
}

func TestNewFailsOnLostContext(t *testing.T) {
	ctx := texture.NewMemory()
	ctx.Lose()

	_, err := New(ctx, Config{Width: 2, Height: 2})
	assert.ErrorIs(t, err, texture.ErrContextLost)
}

func TestLoadFrameZeroFrame(t *testing.T) {
	u, _ := newTestUploader(t, 2, 2, 4)

	f, err := frame.New(frame.FormatI420, 2, 2)
	require.NoError(t, err)
	require.NoError(t, u.LoadFrame(f))
	assert.True(t, u.Loaded())

	y, err := u.ReadPlane(frame.PlaneY)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, y)
	requirePlanes(t, u, f)
}

func TestLoadFrameRoundTrip(t *testing.T) {
	sizes := []struct{ w, h int }{{2, 2}, {16, 8}, {5, 3}, {64, 36}}
	for _, sz := range sizes {
		u, _ := newTestUploader(t, sz.w, sz.h, 4)
		for i := 0; i < 3; i++ {
			f := randomFrame(t, sz.w, sz.h)
			require.NoError(t, u.LoadFrame(f))
			requirePlanes(t, u, f)
		}
	}
}

func TestLoadFrameStridedPlanes(t *testing.T) {
	u, _ := newTestUploader(t, 2, 2, 4)

	f := &frame.Frame{
		Format:  frame.FormatI420,
		Width:   2,
		Height:  2,
		Y:       []byte{1, 2, 0xEE, 0xEE, 3, 4},
		U:       []byte{5},
		V:       []byte{6},
		YStride: 4,
		CStride: 1,
	}
	require.NoError(t, u.LoadFrame(f))

	y, err := u.ReadPlane(frame.PlaneY)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, y)
}

func TestLoadFrameDoesNotRetainBuffers(t *testing.T) {
	u, _ := newTestUploader(t, 2, 2, 4)

	f := randomFrame(t, 2, 2)
	want := f.PackPlane(frame.PlaneY, nil)
	require.NoError(t, u.LoadFrame(f))
	f.Y[0] ^= 0xFF

	got, err := u.ReadPlane(frame.PlaneY)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFrameInvalidDimensionsKeepsPriorState(t *testing.T) {
	u, _ := newTestUploader(t, 4, 4, 4)
	prior := randomFrame(t, 4, 4)
	require.NoError(t, u.LoadFrame(prior))

	i444, err := frame.New(frame.FormatI444, 4, 4)
	require.NoError(t, err)
	short := randomFrame(t, 4, 4)
	short.V = short.V[:3]

	cases := map[string]*frame.Frame{
		"Nil":        nil,
		"Wider":      randomFrame(t, 6, 4),
		"Shorter":    randomFrame(t, 4, 2),
		"Format":     i444,
		"ShortPlane": short,
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			err := u.LoadFrame(f)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFrameDimensions)
			assert.Equal(t, StatusInvalidFrameDimensions, StatusOf(err))
			requirePlanes(t, u, prior)
		})
	}
}

func TestLoadFrameUploadFailureKeepsPriorState(t *testing.T) {
	u, ctx := newTestUploader(t, 4, 4, 4)
	prior := randomFrame(t, 4, 4)
	require.NoError(t, u.LoadFrame(prior))

	// Y goes through, U is rejected
	ctx.LoseAfter(1)
	err := u.LoadFrame(randomFrame(t, 4, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailure)
	assert.ErrorIs(t, err, texture.ErrContextLost)
	assert.Equal(t, StatusUploadFailure, StatusOf(err))

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "U plane", uploadErr.Target)

	ctx.Restore()
	requirePlanes(t, u, prior)

	next := randomFrame(t, 4, 4)
	require.NoError(t, u.LoadFrame(next))
	requirePlanes(t, u, next)
}

func TestUpdateLUT(t *testing.T) {
	u, _ := newTestUploader(t, 2, 2, 4)

	buf := make([]byte, 256)
	rand.Read(buf)
	require.NoError(t, u.UpdateLUT(buf))

	got, err := u.ReadLUT()
	require.NoError(t, err)
	assert.Equal(t, buf, got)

	buf[0] ^= 0xFF
	got, err = u.ReadLUT()
	require.NoError(t, err)
	assert.NotEqual(t, buf, got, "uploader must not alias the caller's buffer")
}

func TestUpdateLUTWrongSizeKeepsPriorState(t *testing.T) {
	u, _ := newTestUploader(t, 2, 2, 4)
	prior := make([]byte, 256)
	rand.Read(prior)
	require.NoError(t, u.UpdateLUT(prior))

	for _, size := range []int{0, 128, 255, 257, 1024} {
		err := u.UpdateLUT(make([]byte, size))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidLUTSize)
		assert.Equal(t, StatusInvalidLUTSize, StatusOf(err))
	}

	got, err := u.ReadLUT()
	require.NoError(t, err)
	assert.Equal(t, prior, got)
}

func TestUpdateLUTUploadFailureKeepsPriorState(t *testing.T) {
	u, ctx := newTestUploader(t, 2, 2, 4)

	ctx.Lose()
	err := u.UpdateLUT(make([]byte, 256))
	assert.ErrorIs(t, err, ErrUploadFailure)

	ctx.Restore()
	got, err := u.ReadLUT()
	require.NoError(t, err)
	assert.Equal(t, lut.Identity(4).Data, got)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusUploadFailure, StatusOf(texture.ErrContextLost))
	assert.Equal(t, "invalid lut size", StatusInvalidLUTSize.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
