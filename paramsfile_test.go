package hdf5import

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/hdf5import/slicespec"
)

func fullParams(t *testing.T) Params {
	t.Helper()
	p, err := NewParams("data/scan.h5", []string{"/", "/extra"},
		WithNameMap(map[string]string{"/a/b": "bee"}),
		WithSliceText(map[string]string{"/img": "0, ::2", "/raw": ""}),
		WithRanges(map[string][4]float64{"/img": {0, 1, 2, 3}}),
		WithGridAsSeries("/xy"),
		WithDateTime(map[string]string{"/t": "unix", "/s": "YYYY-MM-DD"}),
		WithPrefix("pre_"),
		WithSuffix("_post"),
		WithLinked(true),
		WithAttributePrefix("imp_"),
	)
	require.NoError(t, err)
	return p
}

func TestParamsFile_RoundTrip(t *testing.T) {
	for _, name := range []string{"params.toml", "params.yaml"} {
		t.Run(name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), name)
			p := fullParams(t)
			require.NoError(t, SaveParams(filename, p))

			got, err := LoadParams(filename)
			require.NoError(t, err)
			assert.Equal(t, p, got)

			spec, ok := got.Slices["/raw"]
			assert.True(t, ok, "a disabled slice survives")
			assert.Nil(t, spec)
		})
	}
}

func TestDecodeParams_SliceText(t *testing.T) {
	text := `
filename = "x.h5"
items = ["/"]

[slices]
"/a" = "1:2:3:4"
`
	_, err := DecodeParams(strings.NewReader(text), FormatTOML)
	var se *SliceSyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "/a", se.Path)
	assert.True(t, errors.Is(err, slicespec.ErrInvalid))
}

func TestDecodeParams_YAML(t *testing.T) {
	text := `
filename: x.h5
items: [/grp]
slices:
  /grp/img: "::-1, 2"
ranges:
  /grp/img: [0, 0, 5, 5]
`
	p, err := DecodeParams(strings.NewReader(text), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"/grp"}, p.Items)
	assert.Equal(t, "::-1, 2", p.Slices["/grp/img"].String())
	assert.Equal(t, [4]float64{0, 0, 5, 5}, p.Ranges["/grp/img"])
}

func TestDecodeParams_BadRange(t *testing.T) {
	_, err := DecodeParams(strings.NewReader("filename: x\nranges:\n  /a: [1, 2]\n"), FormatYAML)
	var ce *ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestParamsFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("a.yml"))
	assert.Equal(t, FormatYAML, FormatFor("a.YAML"))
	assert.Equal(t, FormatTOML, FormatFor("a.toml"))
	assert.Equal(t, FormatTOML, FormatFor("a"))

	var buf bytes.Buffer
	var ce *ConfigurationError
	assert.True(t, errors.As(EncodeParams(&buf, Params{}, "ini"), &ce))
	_, err := DecodeParams(&buf, "ini")
	assert.True(t, errors.As(err, &ce))
}

func TestLinkedFile_SaveLoad(t *testing.T) {
	p := fullParams(t)
	link := newLinkedFile(p)

	var buf bytes.Buffer
	require.NoError(t, link.Save(&buf))
	assert.Contains(t, buf.String(), `filename = "data/scan.h5"`)

	got, err := LoadLinkedFile(&buf)
	require.NoError(t, err)
	assert.Equal(t, link, got)
}
