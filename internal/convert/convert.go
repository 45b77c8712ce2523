package convert

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/scigolib/hdf5import/internal/attrs"
	"github.com/scigolib/hdf5import/internal/datefmt"
	"github.com/scigolib/hdf5import/internal/errorbars"
	"github.com/scigolib/hdf5import/internal/records"
	"github.com/scigolib/hdf5import/internal/resolve"
	"github.com/scigolib/hdf5import/series"
)

// Datetime modes for numeric data. Any mode other than ModeUnix is treated as
// seconds since the native epoch.
const (
	ModeUnix   = "unix"
	ModeNative = "native"
	ModeVeusz  = "veusz"
)

// Settings are the caller overrides used during conversion, keyed by the
// container path of the dataset.
type Settings struct {
	// DateTime holds a mode for numeric data or a format for text data.
	DateTime map[string]string
	// GridAsSeries marks 2D datasets with 2 or 3 columns to import as a
	// series with error bars.
	GridAsSeries map[string]bool
	// Ranges holds grid extents as [minx, miny, maxx, maxy].
	Ranges map[string][4]float64
}

// Converter turns classified records into output series.
type Converter struct {
	Settings
	Log logrus.FieldLogger
}

func (c *Converter) log() logrus.FieldLogger {
	if c.Log == nil {
		l := logrus.New()
		l.Out = io.Discard
		c.Log = l
	}
	return c.Log
}

// Convert builds the output series for rec. errs holds the error bars paired
// with name. The only error returned is a *datefmt.FormatError for a text
// dataset whose datetime format cannot be compiled.
func (c *Converter) Convert(name string, rec *records.Record, errs errorbars.Set) (series.Dataset, error) {
	a := rec.Data
	switch {
	case a.Kind.IsText():
		return c.text(rec)
	case a.Rank() == 1:
		return c.series1D(rec, errs), nil
	case a.Rank() == 2:
		return c.grid(rec), nil
	}
	return nil, fmt.Errorf("%s: %w", name, &ClassificationError{Kind: a.Kind, Shape: a.Shape, Reason: "unsupported rank"})
}

func (c *Converter) dateTime(rec *records.Record) (string, bool) {
	return resolve.Find(c.DateTime, rec.Origin, func() (string, bool) {
		v, ok := rec.Options[attrs.KeyDateTime]
		if !ok {
			return "", false
		}
		s, _ := attrs.String(v)
		return s, true
	})
}

func (c *Converter) series1D(rec *records.Record, errs errorbars.Set) series.Dataset {
	data := rec.Data.Float
	if mode, ok := c.dateTime(rec); ok {
		values := make([]float64, len(data))
		copy(values, data)
		if mode == ModeUnix {
			for i, v := range values {
				values[i] = datefmt.FromUnix(v)
			}
		}
		return &series.DateTime1D{Values: values}
	}
	return series.NewPlain1D(data, errs.Sym, errs.Neg, errs.Pos)
}

func (c *Converter) grid(rec *records.Record) series.Dataset {
	a := rec.Data
	rows, cols := a.Shape[0], a.Shape[1]

	asSeries := resolve.Value(c.GridAsSeries, rec.Origin, func() (bool, bool) {
		_, ok := rec.Options[attrs.KeyGridAsSeries]
		return ok, ok
	}, false)

	if asSeries && (cols == 2 || cols == 3) {
		if cols == 2 {
			return series.NewPlain1D(a.Column(0), a.Column(1), nil, nil)
		}
		return series.NewPlain1D(a.Column(0), nil, a.Column(2), a.Column(1))
	}

	g := series.NewGrid2D(rows, cols, a.Float)
	r, ok := resolve.Find(c.Ranges, rec.Origin, func() ([4]float64, bool) {
		v, ok := rec.Options[attrs.KeyRange]
		if !ok {
			return [4]float64{}, false
		}
		r, ok := attrs.Range4(v)
		if !ok {
			c.log().WithFields(logrus.Fields{"path": rec.Origin, "value": v}).Warn("ignoring malformed range attribute")
		}
		return r, ok
	})
	if ok {
		g.XRange = &series.Range{Min: r[0], Max: r[2]}
		g.YRange = &series.Range{Min: r[1], Max: r[3]}
	}
	return g
}

func (c *Converter) text(rec *records.Record) (series.Dataset, error) {
	values := rec.Data.Text
	format, ok := c.dateTime(rec)
	if !ok {
		out := make([]string, len(values))
		copy(out, values)
		return &series.Text1D{Values: out}, nil
	}

	p, err := datefmt.Compile(format)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	failed := 0
	for i, s := range values {
		v, err := p.Parse(s)
		if err != nil {
			v = math.NaN()
			failed++
		}
		out[i] = v
	}
	if failed > 0 {
		c.log().WithFields(logrus.Fields{"path": rec.Origin, "format": format, "failed": failed}).Debug("unparseable date values")
	}
	return &series.DateTime1D{Values: out}, nil
}
