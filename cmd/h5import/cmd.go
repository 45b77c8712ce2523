package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scigolib/hdf5import"
	"github.com/scigolib/hdf5import/internal/preview"
	"github.com/scigolib/hdf5import/slicespec"
)

// pairs marks options given as repeated "path=value" flags. They are read
// from the flag set directly since their values may contain commas.
type pairs []string

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// app holds the state shared by the commands of one root command.
type app struct {
	cfg *viper.Viper
	log *logrus.Logger
}

// NewRoot returns the h5import command tree.
func NewRoot() *cobra.Command {
	a := &app{cfg: viper.New(), log: logrus.New()}
	a.log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}

	root := &cobra.Command{
		Use:   "h5import",
		Short: "Import datasets from HDF5 and NetCDF files.",
		Long: `h5import reads the datasets of an HDF5 or NetCDF file the way a plotting
document imports them: groups are walked recursively, slices are applied,
error-bar datasets are attached to their series and every dataset is
converted to a numeric, date/time, text or 2D grid series.

Configuration can be given with flags, with a configuration file (--config)
or with environment variables named 'H5IMPORT_var', where 'var' is the flag
name with dashes replaced by underscores.`,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setConfig(cmd) },
	}

	importCmd := &cobra.Command{
		Use:   "import <file> [item...]",
		Short: "List the datasets an import produces",
		Long: `import reads the given items (default "/") of the file and prints one line
per imported dataset with its output name and a summary.`,
		DisableAutoGenTag: true,
		RunE:              a.runImport,
	}

	sliceCmd := &cobra.Command{
		Use:               "slice <text>",
		Short:             "Check and normalize slice text",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE:              a.runSlice,
	}

	previewCmd := &cobra.Command{
		Use:   "preview <file> <item>",
		Short: "Draw one imported dataset",
		Long: `preview imports a single item and draws the first resulting dataset, or the
one selected with --dataset, to an image file.`,
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE:              a.runPreview,
	}

	versionCmd := &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "h5import v%s\n", hdf5import.Version)
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Show the detected format and a hex dump of a file",
		Long: `dump names the backend that recognizes the file, if any, and prints
--length bytes starting at --offset as hex and ASCII.`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE:              a.runDump,
	}

	root.AddCommand(importCmd, sliceCmd, previewCmd, dumpCmd, versionCmd)

	reading := []*pflag.FlagSet{importCmd.Flags(), previewCmd.Flags()}
	a.register([]option{
		{name: "config", usage: "configuration file location", defaultVal: "",
			flagsets: []*pflag.FlagSet{root.PersistentFlags()}},
		{name: "verbose", shorthand: "v", usage: "log every skipped or renamed dataset", defaultVal: false,
			flagsets: []*pflag.FlagSet{root.PersistentFlags()}},
		{name: "params", usage: "parameter file (.toml, .yaml) to start from", defaultVal: "",
			flagsets: reading},
		{name: "search-path", usage: "directories searched for relative file names", defaultVal: []string{},
			flagsets: reading},
		{name: "attribute-prefix", usage: "storage prefix of directives embedded in the file", defaultVal: "",
			flagsets: reading},
		{name: "grid-as-series", usage: "2D datasets with 2 or 3 columns to import as series with error bars",
			defaultVal: []string{}, flagsets: reading},
		{name: "name", usage: "rename a dataset: path=name (repeatable)", defaultVal: pairs{},
			flagsets: reading},
		{name: "slice", usage: "slice a dataset: path=text (repeatable)", defaultVal: pairs{},
			flagsets: reading},
		{name: "datetime", usage: "convert to date/time: path=mode or path=format (repeatable)", defaultVal: pairs{},
			flagsets: reading},
		{name: "range", usage: "grid extent: path=minx,miny,maxx,maxy (repeatable)", defaultVal: pairs{},
			flagsets: reading},
		{name: "prefix", usage: "prefix added to every output name", defaultVal: "",
			flagsets: []*pflag.FlagSet{importCmd.Flags()}},
		{name: "suffix", usage: "suffix added to every output name", defaultVal: "",
			flagsets: []*pflag.FlagSet{importCmd.Flags()}},
		{name: "linked", usage: "link the datasets to the file", defaultVal: false,
			flagsets: []*pflag.FlagSet{importCmd.Flags()}},
		{name: "save-params", usage: "write the effective parameters to this file", defaultVal: "",
			flagsets: []*pflag.FlagSet{importCmd.Flags()}},
		{name: "stats", usage: "print import counters", defaultVal: false,
			flagsets: []*pflag.FlagSet{importCmd.Flags()}},
		{name: "ndims", usage: "number of dimensions the slice is for (0: one per field)", defaultVal: 0,
			flagsets: []*pflag.FlagSet{sliceCmd.Flags()}},
		{name: "output", shorthand: "o", usage: "image file; the extension selects the format", defaultVal: "preview.png",
			flagsets: []*pflag.FlagSet{previewCmd.Flags()}},
		{name: "dataset", usage: "output name of the dataset to draw", defaultVal: "",
			flagsets: []*pflag.FlagSet{previewCmd.Flags()}},
		{name: "offset", usage: "offset in the file to start dumping from", defaultVal: 0,
			flagsets: []*pflag.FlagSet{dumpCmd.Flags()}},
		{name: "length", usage: "number of bytes to dump", defaultVal: 128,
			flagsets: []*pflag.FlagSet{dumpCmd.Flags()}},
	})
	return root
}

func (a *app) register(options []option) {
	a.cfg.SetEnvPrefix("H5IMPORT")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()

	for _, o := range options {
		for i, set := range o.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(o.flagsets[0].Lookup(o.name))
				continue
			}
			switch v := o.defaultVal.(type) {
			case string:
				set.StringP(o.name, o.shorthand, v, o.usage)
			case bool:
				set.BoolP(o.name, o.shorthand, v, o.usage)
			case int:
				set.IntP(o.name, o.shorthand, v, o.usage)
			case []string:
				set.StringSliceP(o.name, o.shorthand, v, o.usage)
			case pairs:
				set.StringArrayP(o.name, o.shorthand, v, o.usage)
				continue
			default:
				panic("invalid argument type")
			}
			if err := a.cfg.BindPFlag(o.name, set.Lookup(o.name)); err != nil {
				panic(err)
			}
		}
	}
}

// setConfig reads the configuration file, if there is one, and sets up logging.
func (a *app) setConfig(cmd *cobra.Command) error {
	a.log.Out = cmd.OutOrStderr()
	if a.cfg.GetBool("verbose") {
		a.log.SetLevel(logrus.DebugLevel)
	}
	if path := a.cfg.GetString("config"); path != "" {
		a.cfg.SetConfigFile(path)
		if err := a.cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("h5import: problem reading configuration file: %v", err)
		}
	}
	return nil
}

func (a *app) importer(reg prometheus.Registerer) (*hdf5import.Importer, error) {
	imp := hdf5import.NewImporter()
	imp.Log = a.log
	if dirs := a.cfg.GetStringSlice("search-path"); len(dirs) > 0 {
		imp.Resolver = hdf5import.SearchPath(dirs...)
	}
	m, err := hdf5import.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	imp.Metrics = m
	return imp, nil
}

// params merges the parameter file, the arguments and the flags, in that order.
func (a *app) params(flags *pflag.FlagSet, filename string, items []string) (hdf5import.Params, error) {
	var p hdf5import.Params
	if path := a.cfg.GetString("params"); path != "" {
		loaded, err := hdf5import.LoadParams(path)
		if err != nil {
			return p, err
		}
		p = loaded
	}
	if filename != "" {
		p.Filename = filename
	}
	if len(items) > 0 {
		p.Items = items
	}
	if len(p.Items) == 0 {
		p.Items = []string{"/"}
	}
	if p.Filename == "" {
		return p, fmt.Errorf("h5import: no file given")
	}

	var opts []hdf5import.Option
	if v := a.cfg.GetString("attribute-prefix"); v != "" {
		opts = append(opts, hdf5import.WithAttributePrefix(v))
	}
	if v := a.cfg.GetStringSlice("grid-as-series"); len(v) > 0 {
		opts = append(opts, hdf5import.WithGridAsSeries(v...))
	}
	if flags.Lookup("prefix") != nil {
		if v := a.cfg.GetString("prefix"); v != "" {
			opts = append(opts, hdf5import.WithPrefix(v))
		}
		if v := a.cfg.GetString("suffix"); v != "" {
			opts = append(opts, hdf5import.WithSuffix(v))
		}
		if a.cfg.GetBool("linked") {
			opts = append(opts, hdf5import.WithLinked(true))
		}
	}

	names, err := pairFlag(flags, "name")
	if err != nil {
		return p, err
	}
	slices, err := pairFlag(flags, "slice")
	if err != nil {
		return p, err
	}
	modes, err := pairFlag(flags, "datetime")
	if err != nil {
		return p, err
	}
	ranges, err := rangeFlag(flags)
	if err != nil {
		return p, err
	}
	opts = append(opts,
		hdf5import.WithNameMap(names),
		hdf5import.WithSliceText(slices),
		hdf5import.WithDateTime(modes),
		hdf5import.WithRanges(ranges),
	)

	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return p, err
		}
	}
	return p, nil
}

func pairFlag(flags *pflag.FlagSet, name string) (map[string]string, error) {
	values, err := flags.GetStringArray(name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		i := strings.Index(v, "=")
		if i <= 0 {
			return nil, fmt.Errorf("h5import: --%s %q: want path=value", name, v)
		}
		out[v[:i]] = v[i+1:]
	}
	return out, nil
}

func rangeFlag(flags *pflag.FlagSet) (map[string][4]float64, error) {
	text, err := pairFlag(flags, "range")
	if err != nil {
		return nil, err
	}
	out := make(map[string][4]float64, len(text))
	for path, v := range text {
		parts := strings.Split(v, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("h5import: --range %s: want 4 values, got %d", path, len(parts))
		}
		var r [4]float64
		for i, s := range parts {
			if r[i], err = cast.ToFloat64E(strings.TrimSpace(s)); err != nil {
				return nil, fmt.Errorf("h5import: --range %s: %v", path, err)
			}
		}
		out[path] = r
	}
	return out, nil
}

func (a *app) runImport(cmd *cobra.Command, args []string) error {
	var filename string
	var items []string
	if len(args) > 0 {
		filename, items = args[0], args[1:]
	}
	p, err := a.params(cmd.Flags(), filename, items)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	imp, err := a.importer(reg)
	if err != nil {
		return err
	}
	doc := hdf5import.NewMemoryDocument()
	names, err := imp.Import(doc, p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		ds, _ := doc.Data(name)
		fmt.Fprintf(out, "%s\t%s\n", name, ds.Describe())
	}

	if path := a.cfg.GetString("save-params"); path != "" {
		if err := hdf5import.SaveParams(path, p); err != nil {
			return err
		}
		a.log.WithField("file", path).Info("saved parameters")
	}

	if a.cfg.GetBool("stats") {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				label := ""
				for _, lp := range m.GetLabel() {
					label += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
				}
				fmt.Fprintf(out, "# %s%s %g\n", mf.GetName(), label, m.GetCounter().GetValue())
			}
		}
	}
	return nil
}

func (a *app) runSlice(cmd *cobra.Command, args []string) error {
	var spec slicespec.Spec
	var err error
	if n := a.cfg.GetInt("ndims"); n > 0 {
		spec, err = slicespec.Parse(args[0], n)
	} else {
		spec, err = slicespec.ParseFields(args[0])
	}
	if err != nil {
		return err
	}
	if spec == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "(whole dataset)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), spec.String())
	return nil
}

func (a *app) runPreview(cmd *cobra.Command, args []string) error {
	p, err := a.params(cmd.Flags(), args[0], args[1:])
	if err != nil {
		return err
	}
	imp, err := a.importer(nil)
	if err != nil {
		return err
	}
	doc := hdf5import.NewMemoryDocument()
	names, err := imp.Import(doc, p)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("h5import: %s %s: nothing imported", args[0], args[1])
	}

	name := names[0]
	if v := a.cfg.GetString("dataset"); v != "" {
		name = v
	}
	ds, ok := doc.Data(name)
	if !ok {
		return fmt.Errorf("h5import: no dataset %q among %s", name, strings.Join(names, ", "))
	}

	path := a.cfg.GetString("output")
	//nolint:gosec // G304: writing the user-selected output file is the purpose
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if err := preview.Render(f, ds, preview.Options{Title: name, Format: format}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", name, path)
	return nil
}
