// Package main provides h5import, a command-line front end to the importer.
// It lists what an import of an HDF5 or NetCDF file would produce, normalizes
// slice text and draws previews of single datasets.
package main

import (
	"os"
)

func main() {
	if err := NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
