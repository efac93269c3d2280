package lut

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identityCube = `# Created by hand
TITLE "identity"
LUT_3D_SIZE 2

0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 1
`

func TestParseCubeIdentity(t *testing.T) {
	tbl, err := ParseCube(strings.NewReader(identityCube))
	require.NoError(t, err)
	assert.Equal(t, Identity(2), tbl)
}

func TestParseCubeDomain(t *testing.T) {
	src := `LUT_3D_SIZE 2
DOMAIN_MIN 0 0 0
DOMAIN_MAX 2 2 2
0 0 0
2 0 0
0 2 0
2 2 0
0 0 2
2 0 2
0 2 2
1 1 1
`
	tbl, err := ParseCube(strings.NewReader(src))
	require.NoError(t, err)

	r, g, b := tbl.At(1, 1, 1)
	assert.Equal(t, [3]uint8{128, 128, 128}, [3]uint8{r, g, b})
}

func TestParseCubeErrors(t *testing.T) {
	cases := map[string]struct {
		src     string
		wantErr string
	}{
		"MissingSize": {
			src:     "0 0 0\n",
			wantErr: "line 1: sample before LUT_3D_SIZE",
		},
		"Empty": {
			src:     "# nothing\n",
			wantErr: "missing LUT_3D_SIZE",
		},
		"OneDimensional": {
			src:     "LUT_1D_SIZE 256\n",
			wantErr: "1D luts are not supported",
		},
		"TooFewSamples": {
			src:     "LUT_3D_SIZE 2\n0 0 0\n",
			wantErr: "got 1 samples, expected 8",
		},
		"BadSample": {
			src:     "LUT_3D_SIZE 2\n0 0\n",
			wantErr: "line 2: expected 3 values, got 2",
		},
		"TooLarge": {
			src:     "LUT_3D_SIZE 65\n",
			wantErr: "invalid lut dimension",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCube(strings.NewReader(c.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/luts/identity.cube", []byte(identityCube), 0o644))

	tbl, err := Load(fs, "/luts/identity.cube")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Dimension)

	_, err = Load(fs, "/luts/missing.cube")
	assert.Error(t, err)
}
