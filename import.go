// Package hdf5import imports datasets from hierarchical scientific containers
// (HDF5, NetCDF) into a flat collection of named, typed series.
//
// An import walks the requested items of a file, reads every dataset below
// them, applies slices, pairs error-bar datasets with the series they belong
// to, converts each dataset to a series (numeric, date/time, text or 2D grid)
// and stores the results in a Document. Per-dataset behaviour is controlled
// by caller Params first and by directives embedded in the file second.
package hdf5import

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/container/h5"
	"github.com/scigolib/hdf5import/container/nc"
	"github.com/scigolib/hdf5import/internal/convert"
	"github.com/scigolib/hdf5import/internal/datefmt"
	"github.com/scigolib/hdf5import/internal/errorbars"
	"github.com/scigolib/hdf5import/internal/records"
	"github.com/scigolib/hdf5import/internal/utils"
	"github.com/scigolib/hdf5import/internal/walker"
	"github.com/scigolib/hdf5import/series"
)

// Resolver maps a requested filename to the file to open.
type Resolver func(filename string) (string, error)

// SearchPath returns a Resolver that looks for relative filenames in dirs,
// in order, and falls back to the name as given.
func SearchPath(dirs ...string) Resolver {
	return func(filename string) (string, error) {
		if filepath.IsAbs(filename) {
			return filename, nil
		}
		for _, dir := range dirs {
			candidate := filepath.Join(dir, filename)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate, nil
			}
		}
		return filename, nil
	}
}

// DefaultBackends returns a registry with the HDF5 and NetCDF backends.
func DefaultBackends() *container.Registry {
	return container.NewRegistry(h5.Backend(), nc.Backend())
}

// Importer runs imports. The zero value has no backends and fails every
// import with a *ConfigurationError.
type Importer struct {
	// Backends open container files.
	Backends *container.Registry
	// Resolver maps Params.Filename to a path. Nil uses the name as given.
	Resolver Resolver
	// Log receives diagnostics. Nil discards them.
	Log logrus.FieldLogger
	// Metrics, when set, counts import activity.
	Metrics *Metrics
}

// NewImporter returns an importer using DefaultBackends.
func NewImporter() *Importer {
	return &Importer{Backends: DefaultBackends()}
}

func (imp *Importer) log() logrus.FieldLogger {
	if imp.Log == nil {
		l := logrus.New()
		l.Out = io.Discard
		imp.Log = l
	}
	return imp.Log
}

type output struct {
	name string
	data series.Dataset
}

// Import reads p.Items from p.Filename into doc and returns the names it
// emitted, in order.
//
// Datasets that cannot be read or have no supported shape are skipped and
// logged. The import fails as a whole when no backend can open the file
// (*ConfigurationError), an item is missing (*ItemError) or a date format
// does not compile (*DateFormatError); doc is untouched in those cases.
//
// Example:
//
//	p, _ := hdf5import.NewParams("scan.h5", []string{"/"}, hdf5import.WithPrefix("a_"))
//	names, err := hdf5import.NewImporter().Import(doc, p)
func (imp *Importer) Import(doc Document, p Params) (names []string, err error) {
	defer func() { imp.Metrics.recordImport(err) }()

	if imp.Backends.Len() == 0 {
		return nil, &ConfigurationError{Reason: "no container backend registered", Err: ErrNoBackend}
	}
	if doc == nil {
		return nil, &ConfigurationError{Reason: "no document to import into"}
	}

	filename := p.Filename
	if imp.Resolver != nil {
		if filename, err = imp.Resolver(p.Filename); err != nil {
			return nil, utils.WrapError("resolve "+p.Filename, err)
		}
	}
	log := imp.log().WithField("file", filename)

	f, err := imp.Backends.Open(filename)
	if err != nil {
		if errors.Is(err, container.ErrNoBackend) {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("no backend among [%s] accepts the file", strings.Join(imp.Backends.Names(), ", ")),
				Err:    err,
			}
		}
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.WithError(cerr).Warn("closing container")
		}
	}()

	w := &walker.Walker{
		Prefix: p.attributePrefix(),
		Names:  p.NameMap,
		Slices: p.Slices,
		Log:    log,
	}
	recs := records.NewMap()
	for _, item := range p.Items {
		node, err := container.Lookup(f.Root(), item)
		if err != nil {
			return nil, &ItemError{Item: item, Err: err}
		}
		w.Walk(node, recs)
	}

	before := recs.Len()
	errs := errorbars.Pair(recs)
	paired := before - recs.Len()

	outputs, skipped, err := imp.convert(recs, errs, p, log)
	if err != nil {
		return nil, err
	}

	var link *LinkedFile
	if p.Linked {
		link = newLinkedFile(p)
	}
	names = make([]string, 0, len(outputs))
	for _, o := range outputs {
		name := p.Prefix + o.name + p.Suffix
		if err := doc.SetData(name, o.data, link); err != nil {
			return names, utils.WrapError("store "+name, err)
		}
		names = append(names, name)
	}

	imp.Metrics.recordWalk(len(names), w.Stats.Skipped+skipped, w.Stats.Renamed, paired)
	log.WithFields(logrus.Fields{
		"datasets": len(names),
		"skipped":  w.Stats.Skipped + skipped,
		"paired":   paired,
	}).Debug("import finished")
	return names, nil
}

// convert builds every output before any is stored, so a fatal conversion
// error leaves the document untouched.
func (imp *Importer) convert(recs *records.Map, errs errorbars.Map, p Params, log logrus.FieldLogger) ([]output, int, error) {
	conv := &convert.Converter{
		Settings: convert.Settings{
			DateTime:     p.DateTime,
			GridAsSeries: p.GridAsSeries,
			Ranges:       p.Ranges,
		},
		Log: log,
	}

	outputs := make([]output, 0, recs.Len())
	skipped := 0
	for _, name := range recs.Names() {
		rec, _ := recs.Get(name)
		ds, err := conv.Convert(name, rec, errs.Get(name))
		if err != nil {
			var fe *datefmt.FormatError
			if errors.As(err, &fe) {
				return nil, 0, &DateFormatError{Format: fe.Format, Origin: rec.Origin, Err: fe}
			}
			skipped++
			log.WithFields(logrus.Fields{"path": rec.Origin, "error": err}).Info("skipping dataset")
			continue
		}
		outputs = append(outputs, output{name: name, data: ds})
	}
	return outputs, skipped, nil
}

// Import reads items from filename into doc with the HDF5 and NetCDF
// backends and returns the emitted names.
func Import(doc Document, filename string, items []string, opts ...Option) ([]string, error) {
	p, err := NewParams(filename, items, opts...)
	if err != nil {
		return nil, err
	}
	return NewImporter().Import(doc, p)
}
