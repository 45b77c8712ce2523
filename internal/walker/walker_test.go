package walker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/container/memory"
	"github.com/scigolib/hdf5import/internal/records"
	"github.com/scigolib/hdf5import/slicespec"
)

func walk(t *testing.T, w *Walker, n container.Node) *records.Map {
	t.Helper()
	out := records.NewMap()
	w.Walk(n, out)
	return out
}

func TestWalk_SortedKeys(t *testing.T) {
	f := memory.NewFile()
	root := f.Tree()
	root.Floats("b", []int{1}, []float64{2})
	root.Floats("a", []int{1}, []float64{1})
	root.Floats("c", []int{1}, []float64{3})

	out := walk(t, New(), f.Root())
	assert.Equal(t, []string{"a", "b", "c"}, out.Names())

	rec, ok := out.Get("b")
	require.True(t, ok)
	assert.Equal(t, "/b", rec.Origin)
	assert.Equal(t, []float64{2}, rec.Data.Float)
}

func TestWalk_NestedGroups(t *testing.T) {
	f := memory.NewFile()
	g := f.Tree().Group("grp")
	g.Floats("x", []int{2}, []float64{1, 2})
	g.Group("sub").Strings("labels", []string{"a", "b"})

	out := walk(t, New(), f.Root())
	assert.Equal(t, []string{"x", "labels"}, out.Names())
}

func TestWalk_NamePrecedence(t *testing.T) {
	f := memory.NewFile()
	root := f.Tree()
	root.Floats("raw", []int{1}, []float64{1}).SetAttr("vsz_name", "embedded")
	root.Floats("other", []int{1}, []float64{2}).SetAttr("vsz_name", "ignored")
	root.Floats(" plain ", []int{1}, []float64{3})

	w := New()
	w.Names = map[string]string{"/other": "caller"}
	out := walk(t, w, f.Root())
	assert.ElementsMatch(t, []string{"embedded", "caller", "plain"}, out.Names())
}

func TestWalk_NameCollisionUsesFullPath(t *testing.T) {
	f := memory.NewFile()
	f.Tree().Group("a").Floats("v", []int{1}, []float64{1})
	f.Tree().Group("b").Floats("v", []int{1}, []float64{2})

	w := New()
	out := walk(t, w, f.Root())
	assert.Equal(t, []string{"v", "/b/v"}, out.Names())
	assert.Equal(t, 1, w.Stats.Renamed)

	rec, _ := out.Get("/b/v")
	assert.Equal(t, []float64{2}, rec.Data.Float)
}

func TestWalk_Compound(t *testing.T) {
	f := memory.NewFile()
	ds := f.Tree().Compound("table", []string{"t", "y"}, map[string]*container.Array{
		"t": container.NewFloat([]int{3}, []float64{0, 1, 2}),
		"y": container.NewFloat([]int{3}, []float64{5, 6, 7}),
	})
	ds.SetAttr("vsz_name_t", "time")
	ds.SetAttr("vsz_slice_y", "1:")
	ds.SetAttr("vsz_range_t", []float64{0, 0, 1, 1})

	out := walk(t, New(), f.Root())
	assert.Equal(t, []string{"time", "y"}, out.Names())

	rec, _ := out.Get("time")
	assert.Equal(t, "/table/t", rec.Origin)
	assert.Equal(t, []float64{0, 1, 2}, rec.Data.Float)
	assert.Contains(t, rec.Options, "range")

	rec, _ = out.Get("y")
	assert.Equal(t, "/table/y", rec.Origin)
	assert.Equal(t, []float64{6, 7}, rec.Data.Float)
}

func TestWalk_SlicePrecedence(t *testing.T) {
	f := memory.NewFile()
	root := f.Tree()
	root.Floats("emb", []int{4}, []float64{0, 1, 2, 3}).SetAttr("vsz_slice", "::2")
	root.Floats("over", []int{4}, []float64{0, 1, 2, 3}).SetAttr("vsz_slice", "::2")
	root.Floats("bad", []int{4}, []float64{0, 1, 2, 3}).SetAttr("vsz_slice", "1:2, 3")

	w := New()
	w.Slices = map[string]slicespec.Spec{"/over": nil}
	out := walk(t, w, f.Root())

	rec, _ := out.Get("emb")
	assert.Equal(t, []float64{0, 2}, rec.Data.Float)
	rec, _ = out.Get("over")
	assert.Equal(t, []float64{0, 1, 2, 3}, rec.Data.Float)
	rec, _ = out.Get("bad")
	assert.Equal(t, []float64{0, 1, 2, 3}, rec.Data.Float)
}

func TestWalk_SkipsUnsupported(t *testing.T) {
	f := memory.NewFile()
	root := f.Tree()
	root.Floats("cube", []int{1, 1, 2}, []float64{1, 2})
	root.Floats("scalar", []int{}, []float64{1})
	root.Dataset("text2d", container.NewText([]int{1, 1}, []string{"x"}))
	root.Floats("ok", []int{1}, []float64{1})
	root.Floats("broken", []int{1}, []float64{1}).ReadErr = errors.New("disk error")
	root.Floats("gone", []int{1}, []float64{1})
	root.Detach("gone")

	w := New()
	out := walk(t, w, f.Root())
	assert.Equal(t, []string{"ok"}, out.Names())
	assert.Equal(t, 4, w.Stats.Skipped)
	assert.Equal(t, 1, w.Stats.Datasets)
}

func TestWalk_VisitedOnce(t *testing.T) {
	f := memory.NewFile()
	g := f.Tree().Group("g")
	g.Floats("x", []int{1}, []float64{1})

	w := New()
	out := records.NewMap()
	w.Walk(f.Root(), out)
	w.Walk(g, out)
	w.Walk(f.Root(), out)
	assert.Equal(t, []string{"x"}, out.Names())
	assert.Equal(t, 1, w.Stats.Datasets)
}

func TestWalk_Options(t *testing.T) {
	f := memory.NewFile()
	f.Tree().Floats("d", []int{1}, []float64{1}).
		SetAttr("vsz_convert_datetime", "unix").
		SetAttr("units", "s")

	out := walk(t, New(), f.Root())
	rec, _ := out.Get("d")
	assert.Equal(t, map[string]any{"convert_datetime": "unix"}, rec.Options)
}

func TestWalk_CustomPrefix(t *testing.T) {
	f := memory.NewFile()
	f.Tree().Floats("d", []int{1}, []float64{1}).SetAttr("imp_name", "renamed")

	w := &Walker{Prefix: "imp_"}
	out := walk(t, w, f.Root())
	assert.Equal(t, []string{"renamed"}, out.Names())
}

func TestWalk_DisappearedChild(t *testing.T) {
	f := memory.NewFile()
	root := f.Tree()
	root.Floats("a", []int{1}, []float64{1})
	root.Floats("gone", []int{1}, []float64{2})
	root.Group("grp").Floats("b", []int{1}, []float64{3})
	root.Detach("gone")
	require.Contains(t, root.Keys(), "gone")

	out := walk(t, New(), f.Root())
	assert.Equal(t, []string{"a", "b"}, out.Names())
}
