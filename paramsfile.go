package hdf5import

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/scigolib/hdf5import/internal/utils"
)

// Parameter file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// paramsFile is the persisted form of Params. Slices are stored as slice text.
type paramsFile struct {
	Filename        string               `toml:"filename" yaml:"filename"`
	Items           []string             `toml:"items" yaml:"items"`
	Prefix          string               `toml:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix          string               `toml:"suffix,omitempty" yaml:"suffix,omitempty"`
	Linked          bool                 `toml:"linked,omitempty" yaml:"linked,omitempty"`
	AttributePrefix string               `toml:"attribute_prefix,omitempty" yaml:"attribute_prefix,omitempty"`
	Names           map[string]string    `toml:"names,omitempty" yaml:"names,omitempty"`
	Slices          map[string]string    `toml:"slices,omitempty" yaml:"slices,omitempty"`
	Ranges          map[string][]float64 `toml:"ranges,omitempty" yaml:"ranges,omitempty"`
	GridAsSeries    map[string]bool      `toml:"grid_as_series,omitempty" yaml:"grid_as_series,omitempty"`
	DateTime        map[string]string    `toml:"datetime,omitempty" yaml:"datetime,omitempty"`
}

func toFile(p Params) paramsFile {
	f := paramsFile{
		Filename:        p.Filename,
		Items:           p.Items,
		Prefix:          p.Prefix,
		Suffix:          p.Suffix,
		Linked:          p.Linked,
		AttributePrefix: p.AttributePrefix,
		Names:           p.NameMap,
		GridAsSeries:    p.GridAsSeries,
		DateTime:        p.DateTime,
	}
	if len(p.Slices) > 0 {
		f.Slices = make(map[string]string, len(p.Slices))
		for path, s := range p.Slices {
			f.Slices[path] = s.String()
		}
	}
	if len(p.Ranges) > 0 {
		f.Ranges = make(map[string][]float64, len(p.Ranges))
		for path, r := range p.Ranges {
			f.Ranges[path] = r[:]
		}
	}
	return f
}

func (f paramsFile) params() (Params, error) {
	p := Params{
		Filename:        f.Filename,
		Items:           f.Items,
		Prefix:          f.Prefix,
		Suffix:          f.Suffix,
		Linked:          f.Linked,
		AttributePrefix: f.AttributePrefix,
		NameMap:         f.Names,
		GridAsSeries:    f.GridAsSeries,
		DateTime:        f.DateTime,
	}
	if len(f.Slices) > 0 {
		slices, err := parseSlices(f.Slices)
		if err != nil {
			return Params{}, err
		}
		p.Slices = slices
	}
	if len(f.Ranges) > 0 {
		p.Ranges = make(map[string][4]float64, len(f.Ranges))
		for path, r := range f.Ranges {
			if len(r) != 4 {
				return Params{}, &ConfigurationError{Reason: fmt.Sprintf("range for %s has %d values, want 4", path, len(r))}
			}
			p.Ranges[path] = [4]float64{r[0], r[1], r[2], r[3]}
		}
	}
	return p, nil
}

// FormatFor returns the parameter file format implied by the extension of
// filename: ".yaml" and ".yml" are YAML, anything else TOML.
func FormatFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// EncodeParams writes p in the given format.
func EncodeParams(w io.Writer, p Params, format string) error {
	f := toFile(p)
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	}
	return &ConfigurationError{Reason: fmt.Sprintf("unknown parameter format %q", format)}
}

// DecodeParams reads Params in the given format. Slice text that does not
// parse fails with a *SliceSyntaxError.
func DecodeParams(r io.Reader, format string) (Params, error) {
	var f paramsFile
	switch format {
	case FormatTOML:
		if _, err := toml.DecodeReader(r, &f); err != nil {
			return Params{}, utils.WrapError("decode toml parameters", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
			return Params{}, utils.WrapError("decode yaml parameters", err)
		}
	default:
		return Params{}, &ConfigurationError{Reason: fmt.Sprintf("unknown parameter format %q", format)}
	}
	return f.params()
}

// LoadParams reads a parameter file, choosing the format by extension.
func LoadParams(filename string) (Params, error) {
	//nolint:gosec // G304: reading a user-selected parameter file is the purpose
	f, err := os.Open(filename)
	if err != nil {
		return Params{}, utils.WrapError("load parameters", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeParams(f, FormatFor(filename))
}

// SaveParams writes a parameter file, choosing the format by extension.
func SaveParams(filename string, p Params) (err error) {
	//nolint:gosec // G304: writing a user-selected parameter file is the purpose
	f, err := os.Create(filename)
	if err != nil {
		return utils.WrapError("save parameters", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = utils.WrapError("save parameters", cerr)
		}
	}()
	return EncodeParams(f, p, FormatFor(filename))
}
