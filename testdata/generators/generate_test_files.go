//go:build ignore
// +build ignore

// Generates sample container files for manual runs of h5import:
//
//	go run testdata/generators/generate_test_files.go
//	h5import import testdata/sample.h5
package main

import (
	"log"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/scigolib/hdf5"
)

func main() {
	if err := writeHDF5("testdata/sample.h5"); err != nil {
		log.Fatalf("sample.h5: %v", err)
	}
	if err := writeNetCDF("testdata/sample.nc"); err != nil {
		log.Fatalf("sample.nc: %v", err)
	}
}

func wave(n int, f func(float64) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(float64(i) / float64(n) * 2 * math.Pi)
	}
	return out
}

func writeHDF5(filename string) error {
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	if err != nil {
		return err
	}
	defer fw.Close()

	datasets := []struct {
		name  string
		dims  []uint64
		data  []float64
		attrs map[string]interface{}
	}{
		{"/sine", []uint64{64}, wave(64, math.Sin), map[string]interface{}{"vsz_name": "sin"}},
		{"/sine (+-)", []uint64{64}, wave(64, func(float64) float64 { return 0.05 }), nil},
		{"/time", []uint64{64}, wave(64, func(x float64) float64 { return 1.6e9 + x*3600 }),
			map[string]interface{}{"vsz_convert_datetime": "unix"}},
		{"/image", []uint64{16, 16}, wave(256, math.Cos), map[string]interface{}{"vsz_range": []float64{-1, -1, 1, 1}}},
		{"/xy", []uint64{8, 3}, wave(24, math.Abs), map[string]interface{}{"vsz_twod_as_oned": int32(1)}},
		{"/cube", []uint64{4, 4, 4}, wave(64, math.Sin), map[string]interface{}{"vsz_slice": "0, :, :"}},
	}
	for _, d := range datasets {
		ds, err := fw.CreateDataset(d.name, hdf5.Float64, d.dims)
		if err != nil {
			return err
		}
		if err := ds.Write(d.data); err != nil {
			return err
		}
		for k, v := range d.attrs {
			if err := ds.WriteAttribute(k, v); err != nil {
				return err
			}
		}
	}
	return fw.Close()
}

func writeNetCDF(filename string) error {
	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{24, 5, 6})
	h.AddAttribute("", "title", "h5import sample")
	h.AddVariable("temperature", []string{"time"}, []float64{0})
	h.AddAttribute("temperature", "units", "K")
	h.AddVariable("field", []string{"lat", "lon"}, []float32{0})
	h.AddAttribute("field", "vsz_range", []float64{0, 40, 60, 50})
	h.Define()
	for _, err := range h.Check() {
		return err
	}

	ff, err := os.Create(filename)
	if err != nil {
		return err
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return err
	}
	if _, err := f.Writer("temperature", nil, nil).Write(wave(24, func(x float64) float64 { return 280 + 5*math.Sin(x) })); err != nil {
		ff.Close()
		return err
	}
	field := make([]float32, 30)
	for i := range field {
		field[i] = float32(i)
	}
	if _, err := f.Writer("field", nil, nil).Write(field); err != nil {
		ff.Close()
		return err
	}
	return ff.Close()
}
