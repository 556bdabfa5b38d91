// Package main is the Extractify CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/extractify/internal/cli"
	"github.com/hyperjump/extractify/internal/config"
	"github.com/hyperjump/extractify/internal/convert"
	"github.com/hyperjump/extractify/internal/export"
	"github.com/hyperjump/extractify/internal/extract"
	"github.com/hyperjump/extractify/internal/metrics"
	"github.com/hyperjump/extractify/internal/server"
	"github.com/hyperjump/extractify/internal/watcher"
	"github.com/hyperjump/extractify/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/extractify/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and a missing default file means built-in defaults. Returns
// the config and the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newExtractor(cfg *config.Config) *extract.Extractor {
	return extract.NewExtractor(extract.WithFormattedValues(cfg.Extract.FormattedValues))
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	command := os.Args[1]
	var err error
	switch command {
	case "extract":
		err = runExtract(os.Args[2:], os.Stdout, os.Stderr)
	case "convert":
		err = runConvert(os.Args[2:], os.Stdout)
	case "watch":
		err = runWatch(os.Args[2:])
	case "server":
		err = runServer(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("extractify version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// reorderArgs moves flags that appear after the positional arguments to the front so
// that flag.Parse sees them ("extractify extract book.xlsx -output json").
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runExtract(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	outFile := fs.String("o", "", "write the JSON export to this file")
	exportDir := fs.String("export-dir", "", "write the JSON export into this directory, named after the input file")
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: extractify extract [flags] <file>")
	}
	path := fs.Arg(0)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	start := time.Now()
	items, err := newExtractor(cfg).ExtractFile(path)
	metrics.ObserveExtract(start, metrics.ExtractResult(err), len(items))
	if err != nil {
		return err
	}
	if err := cli.WriteItems(stdout, filepath.Base(path), items, format); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	dir := *exportDir
	if dir == "" && *outFile == "" {
		dir = cfg.Export.OutputDir
	}
	if (*outFile != "" || dir != "") && len(items) == 0 {
		fmt.Fprintln(stderr, "Nothing to export")
		return nil
	}
	switch {
	case *outFile != "":
		data, err := export.Marshal(items)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*outFile, data, 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(stderr, "Exported %d items to %s\n", len(items), *outFile)
	case dir != "":
		written, err := export.WriteFile(dir, filepath.Base(path), items)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Exported %d items to %s\n", len(items), written)
	}
	return nil
}

func runConvert(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", "", "output directory (default: export.output_dir, else the working directory)")
	workers := fs.Int("workers", 0, "parallel conversions (default: watch.workers)")
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: extractify convert [flags] <file...>")
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := *outDir
	if dir == "" {
		dir = cfg.Export.OutputDir
	}
	n := *workers
	if n <= 0 {
		n = cfg.Watch.Workers
	}

	var opts []convert.Option
	if cfg.Debug {
		logger, err := utils.NewLogger(true, cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()
		opts = append(opts, convert.WithLogger(logger))
	}
	conv := convert.NewConverter(newExtractor(cfg), dir, opts...)
	results, err := conv.ConvertFiles(context.Background(), fs.Args(), n)
	printResults(stdout, results)
	return err
}

func printResults(w io.Writer, results []convert.Result) {
	for _, res := range results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "FAILED   %s: %v\n", res.Source, res.Err)
		case res.Skipped:
			fmt.Fprintf(w, "SKIPPED  %s (no rows)\n", res.Source)
		default:
			fmt.Fprintf(w, "OK       %s -> %s (%d items)\n", res.Source, res.Output, res.Items)
		}
	}
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", "", "output directory (default: watch.output_dir)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dirs := cfg.Watch.Directories
	if fs.NArg() > 0 {
		dirs = fs.Args()
	}
	if len(dirs) == 0 {
		return errors.New("no directories to watch; pass them as arguments or set watch.directories")
	}
	dir := *outDir
	if dir == "" {
		dir = cfg.Watch.OutputDir
	}

	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", debugMode))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv := convert.NewConverter(newExtractor(cfg), dir, convert.WithLogger(logger))
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.New(dirs, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			_, _ = conv.ConvertFile(ctx, path)
		},
		func(path string) {
			if err := conv.RemoveExport(path); err != nil {
				logger.Warn("remove export failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	if existing := w.ExistingFiles(); len(existing) > 0 {
		_, _ = conv.ConvertFiles(ctx, existing, cfg.Watch.Workers)
	}
	logger.Info("watching", zap.Strings("directories", w.Directories()), zap.String("output_dir", conv.OutputDir()))
	<-ctx.Done()
	logger.Info("Shutting down...")
	return nil
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	level := cfg.Log.Level
	if *debug {
		level = "debug"
	}
	logger, err := utils.NewLogger(debugMode, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", debugMode))

	srv := server.NewServer(newExtractor(cfg), &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `extractify - Pull title/solution rows out of spreadsheets

Usage:
  extractify extract [flags] <file>      Print the rows of one workbook
  extractify convert [flags] <file...>   Write JSON exports for workbooks
  extractify watch [flags] [dir...]      Convert workbooks dropped into directories
  extractify server [flags]              Start the HTTP server
  extractify version                     Show version
  extractify help                        Show this help

Extract Flags:
  --config string      Config file path (default: /usr/local/etc/extractify/config.yaml)
  --output string      Output format: text, compact, or json (default: text)
  --o string           Write the JSON export to this file
  --export-dir string  Write the JSON export into this directory (default: export.output_dir)

Convert Flags:
  --config string    Config file path
  --out string       Output directory (default: export.output_dir)
  --workers int      Parallel conversions (default: watch.workers)

Watch Flags:
  --config string    Config file path
  --out string       Output directory (default: watch.output_dir)
  --debug            Enable debug logging

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging

Examples:
  extractify extract faq.xlsx
  extractify extract --output json faq.xlsx
  extractify extract faq.xlsx -o faq.json
  extractify convert --out exports/ *.xlsx
  extractify watch ~/Drop
  extractify server`)
}
