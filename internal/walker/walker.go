// Package walker traverses a container and gathers every importable dataset
// into a flat, name-keyed record map.
package walker

import (
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/internal/attrs"
	"github.com/scigolib/hdf5import/internal/convert"
	"github.com/scigolib/hdf5import/internal/records"
	"github.com/scigolib/hdf5import/internal/resolve"
	"github.com/scigolib/hdf5import/slicespec"
)

// Stats counts what a walk did.
type Stats struct {
	Datasets int // records added
	Skipped  int // datasets that could not be read or classified
	Renamed  int // datasets that took their full path as name
}

// Walker gathers datasets. A Walker remembers the paths it visited, so one
// Walker should serve exactly one import call.
type Walker struct {
	// Prefix is the storage prefix of embedded directives.
	Prefix string
	// Names maps container paths to output names.
	Names map[string]string
	// Slices maps container paths to selections. A nil entry disables slicing.
	Slices map[string]slicespec.Spec
	// Log receives per-dataset diagnostics.
	Log logrus.FieldLogger

	Stats   Stats
	visited map[string]bool
}

// New returns a walker using the default directive prefix.
func New() *Walker {
	return &Walker{Prefix: attrs.DefaultPrefix}
}

func (w *Walker) log() logrus.FieldLogger {
	if w.Log == nil {
		l := logrus.New()
		l.Out = io.Discard
		w.Log = l
	}
	return w.Log
}

// Walk adds every dataset at or below node to out.
// Failures affecting a single dataset are logged and the dataset is skipped.
func (w *Walker) Walk(node container.Node, out *records.Map) {
	if w.visited == nil {
		w.visited = make(map[string]bool)
	}
	path := node.Path()
	if w.visited[path] {
		w.log().WithField("path", path).Warn("skipping already visited node")
		return
	}
	w.visited[path] = true

	switch n := node.(type) {
	case container.Group:
		w.walkGroup(n, out)
	case container.Dataset:
		if n.Kind() == container.KindCompound {
			w.walkCompound(n, out)
			return
		}
		w.readDataset(n, n.Attributes(), path, out)
	default:
		w.log().WithField("path", path).Debugf("skipping node of type %T", node)
	}
}

func (w *Walker) walkGroup(g container.Group, out *records.Map) {
	keys := g.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		child, err := g.Child(key)
		if err != nil {
			fields := logrus.Fields{"path": container.JoinPath(g.Path(), key), "error": err}
			if errors.Is(err, container.ErrNotFound) {
				w.log().WithFields(fields).Debug("child disappeared during walk")
			} else {
				w.log().WithFields(fields).Warn("cannot open child")
			}
			continue
		}
		w.Walk(child, out)
	}
}

// walkCompound imports each column of a compound dataset as its own dataset.
// Directives for a column are attributes suffixed with "_<column>".
func (w *Walker) walkCompound(ds container.Dataset, out *records.Map) {
	for _, column := range ds.Columns() {
		path := ds.Path() + "/" + column
		col, err := ds.Column(column)
		if err != nil {
			w.skip(path, err)
			continue
		}
		w.readDataset(col, attrs.FilterByColumn(ds.Attributes(), column, w.Prefix), path, out)
	}
}

func (w *Walker) readDataset(ds container.Dataset, md container.AttributeMap, path string, out *records.Map) {
	log := w.log().WithField("path", path)

	name := resolve.Value(w.Names, path, func() (string, bool) {
		v, ok := attrs.Get(md, w.Prefix, attrs.KeyName)
		if !ok {
			return "", false
		}
		return attrs.String(v)
	}, strings.TrimSpace(lastSegment(path)))

	if out.Has(name) {
		full := strings.TrimSpace(path)
		log.WithFields(logrus.Fields{"name": name, "renamed": full}).Debug("name already taken")
		if out.Has(full) {
			log.WithField("name", full).Warn("replacing dataset with the same full path name")
		}
		name = full
		w.Stats.Renamed++
	}

	spec := resolve.Value(w.Slices, path, func() (slicespec.Spec, bool) {
		return w.embeddedSlice(ds, md, log)
	}, nil)

	data, err := slicespec.Read(ds, spec)
	if err != nil {
		w.skip(path, err)
		return
	}
	data, err = convert.Classify(data)
	if err != nil {
		w.skip(path, err)
		return
	}

	out.Set(name, &records.Record{
		Origin:  path,
		Data:    data,
		Options: attrs.Options(md, w.Prefix),
	})
	w.Stats.Datasets++
}

// embeddedSlice parses a slice directive stored in the file. Invalid text is
// ignored: file metadata is untrusted.
func (w *Walker) embeddedSlice(ds container.Dataset, md container.AttributeMap, log logrus.FieldLogger) (slicespec.Spec, bool) {
	v, ok := attrs.Get(md, w.Prefix, attrs.KeySlice)
	if !ok {
		return nil, false
	}
	text, ok := attrs.String(v)
	if !ok {
		log.WithField("value", v).Warn("ignoring non-text slice attribute")
		return nil, false
	}
	spec, err := slicespec.Parse(text, len(ds.Shape()))
	if err != nil {
		log.WithError(err).Warn("ignoring invalid slice attribute")
		return nil, false
	}
	return spec, true
}

func (w *Walker) skip(path string, err error) {
	w.Stats.Skipped++
	w.log().WithFields(logrus.Fields{"path": path, "error": err}).Info("skipping dataset")
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
