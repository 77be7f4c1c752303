// Package main is the entry point for tagsource, which prints the
// adornments and classifications the tagger features produce for files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/dshills/tagsource/internal/app"
	"github.com/dshills/tagsource/internal/tagger"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app     app.Options
	metrics bool
	files   []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	var provider *sdkmetric.MeterProvider
	if opts.metrics {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create metrics exporter: %v\n", err)
			return 1
		}
		provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		opts.app.Meter = provider.Meter("github.com/dshills/tagsource")
	}

	application, err := app.New(opts.app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	status := 0
	for _, path := range opts.files {
		if err := annotateFile(os.Stdout, application, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
		}
	}

	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
		status = 1
	}

	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: flushing metrics: %v\n", err)
			status = 1
		}
	}

	return status
}

// annotateFile prints one line per annotation of path.
func annotateFile(w io.Writer, application *app.Application, path string) error {
	doc, err := application.OpenFile(path)
	if err != nil {
		return err
	}
	defer application.CloseDocument(doc)

	anns, annErr := application.Annotate(doc)
	for _, a := range anns {
		label := a.Label
		if a.Kind == tagger.KindAdornment {
			label = fmt.Sprintf("%q", a.Label)
		}
		fmt.Fprintf(w, "%s:%d:%d\t%s\t%s\t%s\n", path, a.Line, a.Column, a.Feature, a.Kind, label)
	}
	return annErr
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.app.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.app.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.app.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.app.Debug, "d", false, "Enable debug logging (shorthand)")
	flag.StringVar(&opts.app.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	flag.BoolVar(&opts.metrics, "metrics", false, "Print cache metrics to stderr on exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tagsource - show control character adornments and classifications\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tagsource [options] files...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tagsource main.go             Annotate a file\n")
		fmt.Fprintf(os.Stderr, "  tagsource ./project           Classify a directory listing\n")
		fmt.Fprintf(os.Stderr, "  tagsource -c tagsource.toml -metrics notes.txt\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("tagsource %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.app.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.app.LogLevel)
		os.Exit(1)
	}

	opts.files = flag.Args()
	if len(opts.files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	return opts
}
