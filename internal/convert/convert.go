// Package convert turns workbook files on disk into JSON exports, one file at a time or
// in parallel batches.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperjump/extractify/internal/export"
	"github.com/hyperjump/extractify/internal/extract"
	"github.com/hyperjump/extractify/internal/fileid"
	"github.com/hyperjump/extractify/internal/metrics"
	"github.com/hyperjump/extractify/pkg/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used by ConvertFiles when workers <= 0.
const DefaultWorkers = 4

// ErrOutputConflict is returned when a source maps to an export path that another source
// already writes, for example a/faq.xlsx and b/faq.xlsx.
var ErrOutputConflict = errors.New("export path already belongs to another source")

// Result describes one conversion.
type Result struct {
	Source    string
	Output    string // empty when Skipped or on error
	ContentID string
	Items     int
	Skipped   bool // workbook had no qualifying rows
	Err       error
}

// Converter extracts workbooks and writes their exports into an output directory. The
// first source to claim an export path owns it for the converter's lifetime, or until its
// export is removed.
type Converter struct {
	extractor *extract.Extractor
	outDir    string
	logger    *zap.Logger

	mu     sync.Mutex
	owners map[string]string // export path -> source
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets a logger for conversion events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = utils.OrNop(l) }
}

// NewConverter creates a converter writing into outDir. A nil extractor gets the default
// one.
func NewConverter(extractor *extract.Extractor, outDir string, opts ...Option) *Converter {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	c := &Converter{
		extractor: extractor,
		outDir:    outDir,
		logger:    zap.NewNop(),
		owners:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputDir returns the directory exports are written to.
func (c *Converter) OutputDir() string {
	return c.outDir
}

// ConvertFile extracts the workbook at path and writes its export. A workbook with no
// qualifying rows is reported as Skipped and produces no file.
func (c *Converter) ConvertFile(ctx context.Context, path string) (Result, error) {
	res := Result{Source: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		metrics.ConvertTotal.WithLabelValues(metrics.ResultError).Inc()
		return res, res.Err
	}
	res.ContentID = fileid.ContentID(content)

	start := time.Now()
	items, err := c.extractor.Extract(content)
	metrics.ObserveExtract(start, metrics.ExtractResult(err), len(items))
	if err != nil {
		res.Err = fmt.Errorf("extract %s: %w", path, err)
		metrics.ConvertTotal.WithLabelValues(metrics.ResultError).Inc()
		c.logger.Warn("conversion failed", zap.String("path", path), zap.Error(err))
		return res, res.Err
	}
	res.Items = len(items)
	if len(items) == 0 {
		res.Skipped = true
		metrics.ConvertTotal.WithLabelValues(metrics.ResultEmpty).Inc()
		c.logger.Info("no rows to export", zap.String("path", path))
		return res, nil
	}

	if err := c.claim(c.exportPath(path), path); err != nil {
		res.Err = err
		metrics.ConvertTotal.WithLabelValues(metrics.ResultError).Inc()
		c.logger.Warn("export collision", zap.String("path", path), zap.Error(err))
		return res, err
	}
	out, err := export.WriteFile(c.outDir, filepath.Base(path), items)
	if err != nil {
		res.Err = err
		metrics.ConvertTotal.WithLabelValues(metrics.ResultError).Inc()
		return res, err
	}
	res.Output = out
	metrics.ConvertTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.logger.Info("converted",
		zap.String("path", path),
		zap.String("output", out),
		zap.Int("items", res.Items),
		zap.String("content_id", res.ContentID))
	return res, nil
}

// ConvertFiles converts paths with at most workers concurrent conversions. Results are in
// input order. A failing file never stops the others; the returned error combines every
// per-file error. When several paths map to the same export, the earliest one in paths
// wins and the rest fail with ErrOutputConflict without being read.
func (c *Converter) ConvertFiles(ctx context.Context, paths []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if err := c.claim(c.exportPath(path), path); err != nil {
			results[i] = Result{Source: path, Err: err}
			metrics.ConvertTotal.WithLabelValues(metrics.ResultError).Inc()
			c.logger.Warn("export collision", zap.String("path", path), zap.Error(err))
			continue
		}
		i, path := i, path
		g.Go(func() error {
			res, _ := c.ConvertFile(gctx, path)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var errs error
	for _, res := range results {
		errs = multierr.Append(errs, res.Err)
	}
	return results, errs
}

// RemoveExport deletes the export belonging to source. A missing export is not an error,
// and an export owned by a different source is left in place.
func (c *Converter) RemoveExport(source string) error {
	path := c.exportPath(source)
	key := sourceKey(source)

	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, ok := c.owners[path]; ok && owner != key {
		c.logger.Debug("export kept, owned by another source",
			zap.String("source", source), zap.String("owner", owner), zap.String("output", path))
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove export: %w", err)
	}
	delete(c.owners, path)
	c.logger.Debug("export removed", zap.String("source", source), zap.String("output", path))
	return nil
}

func (c *Converter) exportPath(source string) string {
	dir := c.outDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, export.FileName(filepath.Base(source)))
}

// claim records source as the owner of the export at path. Claiming a path the same
// source already owns succeeds.
func (c *Converter) claim(path, source string) error {
	key := sourceKey(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, ok := c.owners[path]; ok && owner != key {
		return fmt.Errorf("%w: %s is written from %s", ErrOutputConflict, path, owner)
	}
	c.owners[path] = key
	return nil
}

func sourceKey(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return filepath.Clean(source)
}
