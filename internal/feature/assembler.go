// Package feature assembles fixed-length feature vectors from per-metric
// tract profile tables.
package feature

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KyungWonPark/TractFeature/internal/calc"
	"github.com/KyungWonPark/TractFeature/internal/config"
	"github.com/KyungWonPark/TractFeature/internal/io"
)

// Assembler turns a directory of profile tables into one feature vector.
type Assembler struct {
	cat     *config.Catalog
	bundles []string
	logger  *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// New validates cat and returns an Assembler bound to it.
func New(cat *config.Catalog, opts ...Option) (*Assembler, error) {
	if cat == nil {
		cat = config.Default()
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	a := &Assembler{
		cat:     cat,
		bundles: cat.SortedBundles(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Bundles returns the extraction order of bundles.
func (a *Assembler) Bundles() []string {
	return append([]string(nil), a.bundles...)
}

// Raw returns the concatenated columns, metric-major then bundle, before
// length normalization.
func (a *Assembler) Raw(ctx context.Context, dir string) ([]float64, error) {
	profiles, err := a.load(ctx, dir)
	if err != nil {
		return nil, err
	}

	var vec []float64
	for i, metric := range a.cat.Metrics {
		p := profiles[i]
		for _, bundle := range a.bundles {
			col, err := p.Column(bundle)
			if err != nil {
				return nil, fmt.Errorf("metric %s: %w", metric, err)
			}
			vec = append(vec, col...)
		}
		a.logger.Debug("extracted metric",
			zap.String("metric", metric),
			zap.Int("samples", p.Rows()),
			zap.Int("total", len(vec)))
	}
	return vec, nil
}

// Assemble returns the feature vector fitted to the catalog length.
func (a *Assembler) Assemble(ctx context.Context, dir string) ([]float64, error) {
	raw, err := a.Raw(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(raw) > a.cat.Length {
		a.logger.Info("truncating feature vector",
			zap.Int("raw", len(raw)),
			zap.Int("length", a.cat.Length))
	}
	return calc.Fit(raw, a.cat.Length), nil
}

// Run assembles the vector from dir and writes it to out. Nothing is
// written when assembly fails.
func (a *Assembler) Run(ctx context.Context, dir, out string) error {
	vec, err := a.Assemble(ctx, dir)
	if err != nil {
		return err
	}
	if err := io.WriteVector(out, vec); err != nil {
		return err
	}
	a.logger.Info("wrote feature vector",
		zap.String("path", out),
		zap.Int("length", len(vec)))
	return nil
}

// load reads every metric table. Results are indexed like cat.Metrics and
// the reported error is the first failing metric in that order.
func (a *Assembler) load(ctx context.Context, dir string) ([]*io.Profile, error) {
	profiles := make([]*io.Profile, len(a.cat.Metrics))
	errs := make([]error, len(a.cat.Metrics))

	workers := a.cat.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, metric := range a.cat.Metrics {
		i, metric := i, metric
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			path := a.cat.ProfilePath(dir, metric)
			p, err := io.ReadProfileCSV(path, a.cat.DelimiterRune(), a.cat.Comment)
			if err != nil {
				errs[i] = fmt.Errorf("metric %s: %w", metric, err)
				return errs[i]
			}
			a.logger.Debug("loaded profile",
				zap.String("metric", metric),
				zap.String("path", path),
				zap.Strings("header", p.Header))
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Wait reports whichever load failed first in time; report the first in metric order.
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}
	return profiles, nil
}
