package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/hdf5import"
)

// writeNetCDF writes a file with a series, its symmetric errors and a grid.
func writeNetCDF(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "run.nc")

	h := cdf.NewHeader([]string{"n", "x", "y"}, []int{4, 2, 3})
	h.AddVariable("signal", []string{"n"}, []float64{0})
	h.AddAttribute("signal", "vsz_name", "volts")
	h.AddVariable("volts (+-)", []string{"n"}, []float64{0})
	h.AddVariable("field", []string{"x", "y"}, []float64{0})
	h.Define()
	for _, err := range h.Check() {
		require.NoError(t, err)
	}

	ff, err := os.Create(filename)
	require.NoError(t, err)
	f, err := cdf.Create(ff, h)
	require.NoError(t, err)
	for name, data := range map[string][]float64{
		"signal":     {1, 2, 3, 4},
		"volts (+-)": {0.5, 0.5, 0.5, 0.5},
		"field":      {1, 2, 3, 4, 5, 6},
	} {
		_, err := f.Writer(name, nil, nil).Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, ff.Close())
	return filename
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot()
	root.SetOutput(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportCommand(t *testing.T) {
	filename := writeNetCDF(t)

	out, err := run(t, "import", filename, "--prefix", "a_", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "a_field\t2D grid, 2 x 3\n")
	assert.Contains(t, out, "a_volts\tnumeric, 4 values, range [1, 4], symmetric errors\n")
	assert.NotContains(t, out, "(+-)\t")
	assert.Contains(t, out, "# hdf5import_error_bars_paired_total 1")
	assert.Contains(t, out, `# hdf5import_imports_total{result="ok"} 1`)
}

func TestImportCommand_Flags(t *testing.T) {
	filename := writeNetCDF(t)
	saved := filepath.Join(t.TempDir(), "params.yaml")

	out, err := run(t, "import", filename, "/signal", "/field",
		"--slice", "/signal=1:3",
		"--name", "/field=map",
		"--range", "/field=0, 0, 10, 20",
		"--save-params", saved,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "volts\tnumeric, 2 values, range [2, 3]\n")
	assert.Contains(t, out, "map\t2D grid, 2 x 3, x [0, 10], y [0, 20]\n")

	p, err := hdf5import.LoadParams(saved)
	require.NoError(t, err)
	assert.Equal(t, filename, p.Filename)
	assert.Equal(t, []string{"/signal", "/field"}, p.Items)
	assert.Equal(t, "1:3", p.Slices["/signal"].String())

	out, err = run(t, "import", "--params", saved)
	require.NoError(t, err)
	assert.Contains(t, out, "map\t2D grid")
}

func TestImportCommand_Env(t *testing.T) {
	filename := writeNetCDF(t)
	t.Setenv("H5IMPORT_SUFFIX", "_env")

	out, err := run(t, "import", filename, "/field")
	require.NoError(t, err)
	assert.Contains(t, out, "field_env\t")
}

func TestImportCommand_Errors(t *testing.T) {
	filename := writeNetCDF(t)

	_, err := run(t, "import")
	assert.Error(t, err)

	_, err = run(t, "import", filename, "/missing")
	assert.ErrorIs(t, err, hdf5import.ErrItemNotFound)

	_, err = run(t, "import", filename, "--slice", "/signal=1:2:3:4")
	var se *hdf5import.SliceSyntaxError
	assert.ErrorAs(t, err, &se)

	_, err = run(t, "import", filename, "--name", "noequals")
	assert.Error(t, err)

	_, err = run(t, "import", filename, "--range", "/field=1,2")
	assert.Error(t, err)
}

func TestSliceCommand(t *testing.T) {
	out, err := run(t, "slice", "0:1:3,:")
	require.NoError(t, err)
	assert.Equal(t, "0:1:3, :\n", out)

	out, err = run(t, "slice", ":, :")
	require.NoError(t, err)
	assert.Equal(t, "(whole dataset)\n", out)

	_, err = run(t, "slice", "--ndims", "3", "1:2")
	assert.Error(t, err)
}

func TestPreviewCommand(t *testing.T) {
	filename := writeNetCDF(t)
	image := filepath.Join(t.TempDir(), "field.png")

	out, err := run(t, "preview", filename, "/field", "-o", image)
	require.NoError(t, err)
	assert.Equal(t, "field -> "+image+"\n", out)

	data, err := os.ReadFile(image)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, err = run(t, "preview", filename, "/field", "--dataset", "other", "-o", image)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "h5import v"+hdf5import.Version+"\n", out)
}

func TestDumpCommand(t *testing.T) {
	filename := writeNetCDF(t)

	out, err := run(t, "dump", filename, "--length", "16")
	require.NoError(t, err)
	assert.Contains(t, out, filename+": netcdf, ")
	assert.Contains(t, out, "Dumping 16 bytes at offset 0x0 (0):\n")
	assert.Contains(t, out, "00000000: 43 44 46 0")
	assert.Contains(t, out, "|CDF.")

	other := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0o600))
	out, err = run(t, "dump", other)
	require.NoError(t, err)
	assert.Contains(t, out, "unknown format, 5 bytes\n")
	assert.Contains(t, out, "|hello|\n")

	_, err = run(t, "dump", other, "--offset", "10")
	assert.Error(t, err)
	_, err = run(t, "dump", other, "--length", "0")
	assert.Error(t, err)
}
