// sjson - descriptor-driven JSON codec CLI tool
//
// Usage:
//
//	sjson fmt [file]                  Reformat under the configured format
//	sjson validate [file...]          Check that input parses
//	sjson inspect [file]              List every path with its type
//	sjson to-cbor [file]              Convert to deterministic CBOR
//	sjson from-cbor [file]            Convert CBOR to text
//	sjson stream encode [file]        Frame each element of a top-level array
//	sjson stream decode [file]        Decode a framed stream
//	sjson schema [name]               JSON Schema of a registered type
//	sjson version                     Print version info
//
// If no file is given, or the file is "-", reads from stdin. Input ending in
// .zst or starting with the zstd magic number is decompressed first.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Neumenon/sjson/internal/cliconfig"
	"github.com/Neumenon/sjson/metrics"
	"github.com/Neumenon/sjson/sjson"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sjson: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
	stats      bool

	unquoted      bool
	ignoreUnknown bool
	structuredMap bool
	specialFloats bool
	encodeDefault bool
	pretty        bool
	indent        string
	comments      bool
	compression   string
}

// app holds state built once per invocation in PersistentPreRunE.
type app struct {
	flags    globalFlags
	cfg      *cliconfig.Config
	logger   *zap.Logger
	format   *sjson.Format
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "sjson",
		Short:             "Reformat, validate and convert JSON and unquoted JSON",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "YAML config file (default: $SJSON_CONFIG)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.BoolVar(&a.flags.stats, "stats", false, "print call statistics to stderr on exit")
	pf.BoolVar(&a.flags.unquoted, "unquoted", false, "write keys and simple strings without quotes")
	pf.BoolVar(&a.flags.ignoreUnknown, "ignore-unknown-keys", false, "skip unknown object keys")
	pf.BoolVar(&a.flags.structuredMap, "structured-map-keys", false, "allow non-primitive map keys")
	pf.BoolVar(&a.flags.specialFloats, "special-floats", false, "allow NaN and Infinity literals")
	pf.BoolVar(&a.flags.encodeDefault, "encode-defaults", false, "write elements equal to their defaults")
	pf.BoolVarP(&a.flags.pretty, "pretty", "p", false, "pretty print output")
	pf.StringVar(&a.flags.indent, "indent", "", "indent string for pretty printing")
	pf.BoolVar(&a.flags.comments, "comments", false, "accept // and /* */ comments and trailing commas")
	pf.StringVar(&a.flags.compression, "compression", "", "input compression: none, zstd or auto")

	root.AddCommand(
		a.fmtCmd(),
		a.validateCmd(),
		a.inspectCmd(),
		a.toCBORCmd(),
		a.fromCBORCmd(),
		a.streamCmd(),
		a.schemaCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := cliconfig.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	opts := []sjson.Option{sjson.WithLogger(a.logger)}
	if a.flags.stats {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, sjson.WithObserver(metrics.MustNewObserver(a.registry, metrics.Options{})))
	}
	a.format = sjson.New(cfg.Format, opts...)
	a.logger.Debug("configured", zap.Any("format", cfg.Format), zap.String("compression", cfg.Compression))
	return nil
}

// applyFlags overlays explicitly set flags on the loaded configuration.
func (a *app) applyFlags(fs *pflag.FlagSet, cfg *cliconfig.Config) {
	bools := []struct {
		name string
		src  bool
		dst  *bool
	}{
		{"unquoted", a.flags.unquoted, &cfg.Format.Unquoted},
		{"ignore-unknown-keys", a.flags.ignoreUnknown, &cfg.Format.IgnoreUnknownKeys},
		{"structured-map-keys", a.flags.structuredMap, &cfg.Format.AllowStructuredMapKeys},
		{"special-floats", a.flags.specialFloats, &cfg.Format.SerializeSpecialFloatingPointValues},
		{"encode-defaults", a.flags.encodeDefault, &cfg.Format.EncodeDefaults},
		{"pretty", a.flags.pretty, &cfg.Format.PrettyPrint},
		{"comments", a.flags.comments, &cfg.Format.AllowComments},
	}
	for _, b := range bools {
		if fs.Changed(b.name) {
			*b.dst = b.src
		}
	}
	if fs.Changed("indent") {
		cfg.Format.Indent = a.flags.indent
	}
	if fs.Changed("compression") {
		cfg.Compression = a.flags.compression
	}
	if a.flags.verbose {
		cfg.LogLevel = "debug"
	}
}

func (a *app) teardown(stderr io.Writer) error {
	if a.registry != nil {
		if err := printStats(stderr, a.registry); err != nil {
			return err
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// newLogger builds a console logger writing to w.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// printStats writes one line per call counter series.
func printStats(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
		}
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "sjson %s\n", version)
			return nil
		},
	}
}
