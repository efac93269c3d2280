package lut

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Load reads a .cube file from fs.
func Load(fs afero.Fs, path string) (*Table, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open lut")
	}
	defer f.Close()

	t, err := ParseCube(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return t, nil
}

// ParseCube reads an Adobe .cube 3D LUT. Samples are listed with red varying
// fastest, then green, then blue, and are normalized by DOMAIN_MIN/DOMAIN_MAX.
func ParseCube(r io.Reader) (*Table, error) {
	var (
		t         *Table
		n         int
		count     int
		domainMin = [3]float64{0, 0, 0}
		domainMax = [3]float64{1, 1, 1}
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "TITLE":
			continue
		case "LUT_1D_SIZE":
			return nil, errors.Errorf("line %d: 1D luts are not supported", line)
		case "LUT_3D_SIZE":
			if t != nil {
				return nil, errors.Errorf("line %d: duplicate LUT_3D_SIZE", line)
			}
			if len(fields) != 2 {
				return nil, errors.Errorf("line %d: malformed LUT_3D_SIZE", line)
			}
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			if !ValidDimension(v) {
				return nil, errors.Wrapf(ErrInvalidDimension, "line %d: dimension %d", line, v)
			}
			n = v
			t = &Table{Dimension: n, Data: make([]byte, Size(n))}
			continue
		case "DOMAIN_MIN", "DOMAIN_MAX":
			vals, err := parseTriple(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: %s", line, fields[0])
			}
			if fields[0] == "DOMAIN_MIN" {
				domainMin = vals
			} else {
				domainMax = vals
			}
			continue
		}

		if t == nil {
			return nil, errors.Errorf("line %d: sample before LUT_3D_SIZE", line)
		}
		vals, err := parseTriple(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if count >= n*n*n {
			return nil, errors.Errorf("line %d: more than %d samples", line, n*n*n)
		}

		ri := count % n
		gi := (count / n) % n
		bi := count / (n * n)
		var rgb [3]uint8
		for c := 0; c < 3; c++ {
			span := domainMax[c] - domainMin[c]
			if span <= 0 {
				return nil, errors.Errorf("line %d: empty domain", line)
			}
			rgb[c] = round8((vals[c] - domainMin[c]) / span * 255)
		}
		t.set(ri, gi, bi, rgb[0], rgb[1], rgb[2])
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read cube")
	}
	if t == nil {
		return nil, errors.New("missing LUT_3D_SIZE")
	}
	if count != n*n*n {
		return nil, errors.Errorf("got %d samples, expected %d", count, n*n*n)
	}
	return t, nil
}

func parseTriple(fields []string) ([3]float64, error) {
	var out [3]float64
	if len(fields) != 3 {
		return out, errors.Errorf("expected 3 values, got %d", len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
