package frame

import (
	"fmt"
	"testing"

	"github.com/matryer/is"
)

func TestSize(t *testing.T) {
	is := is.New(t)

	n, err := Size(FormatI420, 640, 480)
	is.NoErr(err)
	is.Equal(n, 640*480*3/2)

	n, err = Size(FormatI420, 3, 3)
	is.NoErr(err)
	is.Equal(n, 9+2*4)

	n, err = Size(FormatI444, 2, 2)
	is.NoErr(err)
	is.Equal(n, 12)

	_, err = Size("YUY2", 2, 2)
	is.True(err != nil)
}

func TestDecodeI420AliasesBuffer(t *testing.T) {
	is := is.New(t)
	input := []byte{
		0x01, 0x02,
		0x03, 0x04,
		0x80, // U
		0x90, // V
	}

	f, err := Decode(FormatI420, input, 2, 2)
	is.NoErr(err)
	is.Equal(f.Y, []byte{0x01, 0x02, 0x03, 0x04})
	is.Equal(f.U, []byte{0x80})
	is.Equal(f.V, []byte{0x90})
	is.NoErr(f.Validate())

	input[0] = 0xFF
	is.Equal(f.Y[0], byte(0xFF)) // planes alias the source buffer
}

func TestDecodeNV12(t *testing.T) {
	is := is.New(t)
	input := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
		//  U     V     U     V
		0x81, 0x91, 0x82, 0x92,
	}

	f, err := Decode(FormatNV12, input, 4, 2)
	is.NoErr(err)
	is.Equal(f.Format, FormatI420)
	is.Equal(f.U, []byte{0x81, 0x82})
	is.Equal(f.V, []byte{0x91, 0x92})
	is.NoErr(f.Validate())
}

func TestDecodeNV21SwapsChroma(t *testing.T) {
	is := is.New(t)
	input := []byte{
		0x01, 0x02,
		0x03, 0x04,
		0x91, 0x81, // V U
	}

	f, err := Decode(FormatNV21, input, 2, 2)
	is.NoErr(err)
	is.Equal(f.U, []byte{0x81})
	is.Equal(f.V, []byte{0x91})
}

func TestDecodeShortBuffer(t *testing.T) {
	is := is.New(t)

	_, err := Decode(FormatI420, make([]byte, 5), 2, 2)
	is.True(err != nil)
	is.Equal(err.Error(), "frame length (5) less than expected (6)")
}

func BenchmarkDecodeNV12(b *testing.B) {
	sizes := []struct {
		width, height int
	}{
		{640, 480},
		{1920, 1080},
	}
	for _, sz := range sizes {
		sz := sz
		b.Run(fmt.Sprintf("%dx%d", sz.width, sz.height), func(b *testing.B) {
			input := make([]byte, sz.width*sz.height*3/2)
			for i := 0; i < b.N; i++ {
				if _, err := Decode(FormatNV12, input, sz.width, sz.height); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
