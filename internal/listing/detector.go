// Package listing drives an infinitely scrolling listing until the number
// of rendered items stops changing.
package listing

import (
	"context"
	"time"

	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/ppiankov/cohortscan/internal/worker"
	"go.uber.org/zap"
)

// Page is the part of a rendering session the detector drives
type Page interface {
	Count(ctx context.Context, selector string) (int, error)
	ScrollToBottom(ctx context.Context) error
	PressEnd(ctx context.Context) error
	ScrollBy(ctx context.Context, dy int) error
}

// Result describes how the listing phase ended
type Result struct {
	Count      int  // items rendered at the last successful count
	Iterations int  // count attempts made
	Complete   bool // false when the iteration ceiling was hit first
}

// Detector repeats load signals until the item count is stable
type Detector struct {
	cfg      model.ListingConfig
	selector string
	logger   *zap.Logger

	// sleep is swapped out in tests
	sleep func(context.Context, time.Duration) error
}

// NewDetector creates a detector counting elements matched by selector
func NewDetector(cfg model.ListingConfig, selector string, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = 3
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 20
	}

	return &Detector{
		cfg:      cfg,
		selector: selector,
		logger:   logger,
		sleep:    worker.Sleep,
	}
}

// Run counts items, then scrolls, until the count has been unchanged for
// StabilityThreshold consecutive iterations or MaxIterations is reached.
// Hitting the ceiling is not an error; Result.Complete reports it.
// Only context cancellation makes Run return an error.
func (d *Detector) Run(ctx context.Context, page Page) (Result, error) {
	var res Result
	previous := -1
	stable := 0

	for i := 1; i <= d.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations = i

		count, err := page.Count(ctx, d.selector)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			d.logger.Warn("count failed, treating as unchanged", zap.Int("iteration", i), zap.Error(err))
			count = previous
		}

		if count == previous {
			stable++
		} else {
			stable = 0
			previous = count
		}
		if count >= 0 {
			res.Count = count
		}

		d.logger.Debug("listing iteration",
			zap.Int("iteration", i),
			zap.Int("count", count),
			zap.Int("stable", stable))

		if stable >= d.cfg.StabilityThreshold {
			res.Complete = true
			return res, nil
		}
		if i == d.cfg.MaxIterations {
			break
		}

		if err := d.signal(ctx, page); err != nil {
			return res, err
		}
	}

	d.logger.Warn("listing did not stabilize",
		zap.Int("iterations", res.Iterations),
		zap.Int("count", res.Count),
		zap.Error(model.ErrListingIncomplete))
	return res, nil
}

// signal issues each load trigger followed by its pause. A failing
// trigger is logged; only cancellation aborts.
func (d *Detector) signal(ctx context.Context, page Page) error {
	steps := []struct {
		name  string
		do    func(context.Context) error
		pause time.Duration
	}{
		{"scroll to bottom", page.ScrollToBottom, d.cfg.SignalPause},
		{"end key", page.PressEnd, d.cfg.SignalPause},
		{"scroll by", func(ctx context.Context) error { return page.ScrollBy(ctx, d.cfg.ScrollStep) }, d.cfg.IterationPause},
	}

	for _, step := range steps {
		if err := step.do(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Debug("load signal failed", zap.String("signal", step.name), zap.Error(err))
		}
		if err := d.sleep(ctx, step.pause); err != nil {
			return err
		}
	}
	return nil
}
