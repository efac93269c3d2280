// Package lut holds 3D color lookup tables in the strip layout the render
// shader samples: N slices of N x N RGBA8 entries placed side by side, giving
// an N*N x N texture where entry (r, g, b) sits at texel (b*N+r, g).
package lut

import (
	"github.com/pkg/errors"
)

const (
	// BytesPerEntry is the size of one RGBA8 table entry.
	BytesPerEntry = 4
	// MinDimension and MaxDimension bound the lattice size per axis.
	MinDimension = 2
	MaxDimension = 64
	// DefaultDimension is the lattice size the viewer configures by default.
	DefaultDimension = 16
)

// ErrInvalidDimension is returned for lattice sizes outside the supported range.
var ErrInvalidDimension = errors.New("invalid lut dimension")

// Table is a 3D LUT with Dimension^3 entries.
type Table struct {
	Dimension int
	Data      []byte
}

// Size returns the byte size of a table with n entries per axis.
func Size(n int) int {
	return n * n * n * BytesPerEntry
}

// TextureSize returns the strip texture geometry of a table with n entries per axis.
func TextureSize(n int) (int, int) {
	return n * n, n
}

// ValidDimension reports whether n is a supported lattice size.
func ValidDimension(n int) bool {
	return n >= MinDimension && n <= MaxDimension
}

// New copies data into a table. len(data) must equal Size(n).
func New(n int, data []byte) (*Table, error) {
	if !ValidDimension(n) {
		return nil, errors.Wrapf(ErrInvalidDimension, "dimension %d", n)
	}
	if len(data) != Size(n) {
		return nil, errors.Errorf("lut length (%d) does not match expected (%d)", len(data), Size(n))
	}
	t := &Table{Dimension: n, Data: make([]byte, len(data))}
	copy(t.Data, data)
	return t, nil
}

// Identity returns a table that maps every color onto itself.
func Identity(n int) *Table {
	t := &Table{Dimension: n, Data: make([]byte, Size(n))}
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				t.set(r, g, b, latticeValue(r, n), latticeValue(g, n), latticeValue(b, n))
			}
		}
	}
	return t
}

func latticeValue(i, n int) uint8 {
	return uint8((i*255 + (n-1)/2) / (n - 1))
}

func (t *Table) offset(r, g, b int) int {
	n := t.Dimension
	return (g*n*n + b*n + r) * BytesPerEntry
}

func (t *Table) set(r, g, b int, vr, vg, vb uint8) {
	i := t.offset(r, g, b)
	t.Data[i] = vr
	t.Data[i+1] = vg
	t.Data[i+2] = vb
	t.Data[i+3] = 0xFF
}

// At returns the lattice entry at integer coordinates.
func (t *Table) At(r, g, b int) (uint8, uint8, uint8) {
	i := t.offset(r, g, b)
	return t.Data[i], t.Data[i+1], t.Data[i+2]
}

// Sample maps an 8-bit color through the table with trilinear interpolation.
func (t *Table) Sample(r, g, b uint8) (uint8, uint8, uint8) {
	n := t.Dimension
	r0, r1, fr := lattice(r, n)
	g0, g1, fg := lattice(g, n)
	b0, b1, fb := lattice(b, n)

	var out [3]float64
	for _, c := range [8]struct {
		r, g, b int
		w       float64
	}{
		{r0, g0, b0, (1 - fr) * (1 - fg) * (1 - fb)},
		{r1, g0, b0, fr * (1 - fg) * (1 - fb)},
		{r0, g1, b0, (1 - fr) * fg * (1 - fb)},
		{r1, g1, b0, fr * fg * (1 - fb)},
		{r0, g0, b1, (1 - fr) * (1 - fg) * fb},
		{r1, g0, b1, fr * (1 - fg) * fb},
		{r0, g1, b1, (1 - fr) * fg * fb},
		{r1, g1, b1, fr * fg * fb},
	} {
		if c.w == 0 {
			continue
		}
		vr, vg, vb := t.At(c.r, c.g, c.b)
		out[0] += c.w * float64(vr)
		out[1] += c.w * float64(vg)
		out[2] += c.w * float64(vb)
	}
	return round8(out[0]), round8(out[1]), round8(out[2])
}

// Resample returns a table of dimension n sampling t at every lattice point.
func (t *Table) Resample(n int) (*Table, error) {
	if !ValidDimension(n) {
		return nil, errors.Wrapf(ErrInvalidDimension, "resample to %d", n)
	}
	if n == t.Dimension {
		return New(n, t.Data)
	}
	out := &Table{Dimension: n, Data: make([]byte, Size(n))}
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				vr, vg, vb := t.Sample(latticeValue(r, n), latticeValue(g, n), latticeValue(b, n))
				out.set(r, g, b, vr, vg, vb)
			}
		}
	}
	return out, nil
}

// lattice returns the two neighbouring lattice indices of v and the blend
// factor between them.
func lattice(v uint8, n int) (int, int, float64) {
	pos := float64(v) * float64(n-1) / 255
	i0 := int(pos)
	if i0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return i0, i0 + 1, pos - float64(i0)
}

func round8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
