package hdf5import

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/container/memory"
	"github.com/scigolib/hdf5import/internal/datefmt"
	"github.com/scigolib/hdf5import/series"
	"github.com/scigolib/hdf5import/slicespec"
)

const memFile = "mem.h5"

// sampleFile builds:
//
//	/grp/img      [2,3] with vsz_range
//	/grp/y        [3]
//	/labels       text [2]
//	/time         [2] with vsz_convert_datetime=unix
//	/x            [3]
//	/x (+-)       [3]
func sampleFile() *memory.File {
	f := memory.NewFile()
	root := f.Tree()
	root.Floats("x", []int{3}, []float64{1, 2, 3})
	root.Floats("x (+-)", []int{3}, []float64{0.1, 0.2, 0.3})
	root.Strings("labels", []string{"a", "b"})
	root.Floats("time", []int{2}, []float64{0, datefmt.UnixOffset}).
		SetAttr("vsz_convert_datetime", "unix")

	grp := root.Group("grp")
	grp.Floats("y", []int{3}, []float64{4, 5, 6})
	grp.Floats("img", []int{2, 3}, []float64{1, 2, 3, 4, 5, 6}).
		SetAttr("vsz_range", []float64{0, 10, 1, 20})
	return f
}

func memImporter(f *memory.File) *Importer {
	return &Importer{
		Backends: container.NewRegistry(memory.Backend(map[string]*memory.File{memFile: f})),
	}
}

func TestImport_Pipeline(t *testing.T) {
	f := sampleFile()
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/"}, WithPrefix("p_"), WithSuffix("_s"))
	require.NoError(t, err)

	names, err := memImporter(f).Import(doc, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"p_img_s", "p_y_s", "p_labels_s", "p_time_s", "p_x_s"}, names)
	assert.Equal(t, names, doc.Names())
	assert.Equal(t, 1, f.Closed)

	ds, ok := doc.Data("p_x_s")
	require.True(t, ok)
	x := ds.(*series.Plain1D)
	assert.Equal(t, []float64{1, 2, 3}, x.Data)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, x.Serr)

	ds, _ = doc.Data("p_img_s")
	img := ds.(*series.Grid2D)
	rows, cols := img.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, &series.Range{Min: 0, Max: 1}, img.XRange)
	assert.Equal(t, &series.Range{Min: 10, Max: 20}, img.YRange)

	ds, _ = doc.Data("p_time_s")
	assert.Equal(t, []float64{-datefmt.UnixOffset, 0}, ds.(*series.DateTime1D).Values)

	ds, _ = doc.Data("p_labels_s")
	assert.Equal(t, []string{"a", "b"}, ds.(*series.Text1D).Values)

	assert.Nil(t, doc.Link("p_x_s"))
}

func TestImport_CallerOverrides(t *testing.T) {
	f := sampleFile()
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/grp", "/x"},
		WithNameMap(map[string]string{"/grp/y": "why"}),
		WithSliceText(map[string]string{"/x": "1:"}),
		WithRanges(map[string][4]float64{"/grp/img": {1, 2, 3, 4}}),
	)
	require.NoError(t, err)

	names, err := memImporter(f).Import(doc, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"img", "why", "x"}, names)

	ds, _ := doc.Data("x")
	assert.Equal(t, []float64{2, 3}, ds.(*series.Plain1D).Data)

	ds, _ = doc.Data("img")
	img := ds.(*series.Grid2D)
	assert.Equal(t, &series.Range{Min: 1, Max: 3}, img.XRange)
	assert.Equal(t, &series.Range{Min: 2, Max: 4}, img.YRange)
}

func TestImport_GridAsSeries(t *testing.T) {
	f := memory.NewFile()
	f.Tree().Floats("xy", []int{3, 2}, []float64{1, 0.1, 2, 0.2, 3, 0.3})
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/"}, WithGridAsSeries("/xy"))
	require.NoError(t, err)
	_, err = memImporter(f).Import(doc, p)
	require.NoError(t, err)

	ds, _ := doc.Data("xy")
	s := ds.(*series.Plain1D)
	assert.Equal(t, []float64{1, 2, 3}, s.Data)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, s.Serr)
}

func TestImport_NameClash(t *testing.T) {
	f := memory.NewFile()
	f.Tree().Group("a").Floats("v", []int{1}, []float64{1})
	f.Tree().Group("b").Floats("v", []int{1}, []float64{2})
	doc := NewMemoryDocument()

	names, err := memImporter(f).Import(doc, Params{Filename: memFile, Items: []string{"/"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"v", "/b/v"}, names)
}

func TestImport_NoBackend(t *testing.T) {
	_, err := (&Importer{}).Import(NewMemoryDocument(), Params{Filename: memFile, Items: []string{"/"}})
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.True(t, errors.Is(err, ErrNoBackend))
}

func TestImport_NoMatchingBackend(t *testing.T) {
	imp := memImporter(memory.NewFile())
	doc := NewMemoryDocument()

	_, err := imp.Import(doc, Params{Filename: "unknown.bin", Items: []string{"/"}})
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.True(t, errors.Is(err, ErrNoBackend))
	assert.Contains(t, err.Error(), "memory")
	assert.Equal(t, 0, doc.Len())
}

func TestImport_MissingItem(t *testing.T) {
	f := sampleFile()
	doc := NewMemoryDocument()

	_, err := memImporter(f).Import(doc, Params{Filename: memFile, Items: []string{"/x", "/nope"}})
	var ie *ItemError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "/nope", ie.Item)
	assert.True(t, errors.Is(err, ErrItemNotFound))
	assert.True(t, errors.Is(err, container.ErrNotFound))
	assert.Equal(t, 0, doc.Len())
	assert.Equal(t, 1, f.Closed)
}

func TestImport_BadDateFormat(t *testing.T) {
	f := sampleFile()
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/"}, WithDateTime(map[string]string{"/labels": "xyz"}))
	require.NoError(t, err)

	_, err = memImporter(f).Import(doc, p)
	var de *DateFormatError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "xyz", de.Format)
	assert.Equal(t, "/labels", de.Origin)

	var fe *datefmt.FormatError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, doc.Len(), "nothing is stored after a fatal conversion error")
	assert.Equal(t, 1, f.Closed)
}

func TestImport_TextDateTime(t *testing.T) {
	f := memory.NewFile()
	f.Tree().Strings("when", []string{"2009-01-02", "bad"})
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/"}, WithDateTime(map[string]string{"/when": "YYYY-MM-DD"}))
	require.NoError(t, err)
	_, err = memImporter(f).Import(doc, p)
	require.NoError(t, err)

	ds, _ := doc.Data("when")
	values := ds.(*series.DateTime1D).Values
	require.Len(t, values, 2)
	assert.Equal(t, 86400.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
}

func TestImport_BadSliceText(t *testing.T) {
	_, err := NewParams(memFile, []string{"/"}, WithSliceText(map[string]string{"/x": "1:2:3:4"}))
	var se *SliceSyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "/x", se.Path)
	assert.True(t, errors.Is(err, slicespec.ErrInvalid))
}

func TestImport_Linked(t *testing.T) {
	f := sampleFile()
	imp := memImporter(f)
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/x"}, WithLinked(true))
	require.NoError(t, err)
	names, err := imp.Import(doc, p)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, names)

	link := doc.Link("x")
	require.NotNil(t, link)
	assert.Equal(t, memFile, link.Filename)

	again := NewMemoryDocument()
	reloaded, err := link.Reload(imp, again)
	require.NoError(t, err)
	assert.Equal(t, names, reloaded)
	assert.NotNil(t, again.Link("x"))
}

func TestImport_LinkedKeepsParams(t *testing.T) {
	f := sampleFile()
	imp := memImporter(f)
	doc := NewMemoryDocument()

	p, err := NewParams(memFile, []string{"/x"},
		WithLinked(true),
		WithNameMap(map[string]string{"/x": "first"}),
	)
	require.NoError(t, err)
	names, err := imp.Import(doc, p)
	require.NoError(t, err)
	require.Equal(t, []string{"first"}, names)

	p.NameMap["/x"] = "changed"
	p.Items[0] = "/grp"

	reloaded, err := doc.Link("first").Reload(imp, NewMemoryDocument())
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, reloaded)
}

func TestImport_Resolver(t *testing.T) {
	imp := memImporter(sampleFile())
	imp.Resolver = func(filename string) (string, error) {
		if filename == "alias" {
			return memFile, nil
		}
		return "", fmt.Errorf("unknown file %q", filename)
	}

	names, err := imp.Import(NewMemoryDocument(), Params{Filename: "alias", Items: []string{"/x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)

	_, err = imp.Import(NewMemoryDocument(), Params{Filename: "other", Items: []string{"/x"}})
	assert.Error(t, err)
}

func TestImport_Metrics(t *testing.T) {
	f := sampleFile()
	f.Tree().Floats("cube", []int{1, 1, 1}, []float64{1})

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	imp := memImporter(f)
	imp.Metrics = m
	_, err = imp.Import(NewMemoryDocument(), Params{Filename: memFile, Items: []string{"/"}})
	require.NoError(t, err)
	_, err = imp.Import(NewMemoryDocument(), Params{Filename: memFile, Items: []string{"/missing"}})
	require.Error(t, err)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.imported))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("error")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice fails")

	m, err = NewMetrics(nil)
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestSearchPath(t *testing.T) {
	dir := t.TempDir()
	onDisk := filepath.Join(dir, memFile)
	require.NoError(t, os.WriteFile(onDisk, nil, 0o600))
	imp := &Importer{
		Backends: container.NewRegistry(memory.Backend(map[string]*memory.File{onDisk: sampleFile()})),
		Resolver: SearchPath(filepath.Join(dir, "missing"), dir),
	}

	names, err := imp.Import(NewMemoryDocument(), Params{Filename: memFile, Items: []string{"/x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)

	r := SearchPath(dir)
	got, err := r("/abs/file.h5")
	require.NoError(t, err)
	assert.Equal(t, "/abs/file.h5", got)
	got, err = r("missing.h5")
	require.NoError(t, err)
	assert.Equal(t, "missing.h5", got)
}
