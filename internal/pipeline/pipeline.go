package pipeline

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/ppiankov/cohortscan/internal/browser"
	"github.com/ppiankov/cohortscan/internal/cache"
	"github.com/ppiankov/cohortscan/internal/extract"
	"github.com/ppiankov/cohortscan/internal/listing"
	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/ppiankov/cohortscan/internal/profile"
	"github.com/ppiankov/cohortscan/internal/resolve"
	"github.com/ppiankov/cohortscan/internal/sink"
	"github.com/ppiankov/cohortscan/internal/util"
	"github.com/ppiankov/cohortscan/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pipeline orchestrates a complete scan: render the listing, extract
// candidates, then resolve, inspect and persist each one in order.
type Pipeline struct {
	config    *model.Config
	fetcher   *Fetcher
	limiter   *worker.Limiter
	extractor *extract.CardExtractor
	detector  *listing.Detector
	resolver  *resolve.Resolver
	inspector *profile.Inspector
	sink      *sink.CSVSink
	engines   []browser.Engine
	logger    *zap.Logger
	progress  io.Writer
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithEngines replaces the engines named in the browser config
func WithEngines(engines ...browser.Engine) Option {
	return func(p *Pipeline) {
		p.engines = engines
	}
}

// WithProgress sets where human-readable progress lines go (default stderr)
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) {
		p.progress = w
	}
}

// Summary describes a finished or interrupted run
type Summary struct {
	Engine         string
	ListingCount   int  // cards rendered when the listing settled
	ListingDone    bool // false when the detector hit its ceiling
	UniqueCards    int
	Processed      int // rows written
	Websites       int
	Profiles       int
	Markers        int
	DetailFailures int
	OutputPath     string
	Duration       time.Duration
}

// NewPipeline wires every component from cfg
func NewPipeline(cfg *model.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fetchOpts := []FetcherOption{WithLimiter(limiter)}
	if cfg.Cache.Enabled {
		fetchOpts = append(fetchOpts, WithCache(
			cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL),
			cfg.Cache.DiskTTL,
		))
	}

	fetcher := NewFetcher(cfg.HTTP, fetchOpts...)
	if cfg.HTTP.RespectRobots {
		WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, fetcher.HTTPClient()))(fetcher)
	}

	p := &Pipeline{
		config:    cfg,
		fetcher:   fetcher,
		limiter:   limiter,
		extractor: extract.NewCardExtractor(cfg.Source, logger.Named("extract")),
		detector:  listing.NewDetector(cfg.Listing, cfg.Source.CardSelector, logger.Named("listing")),
		resolver:  resolve.NewResolver(fetcher, cfg.Resolve, cfg.Source.BaseURL, logger.Named("resolve")),
		inspector: profile.NewInspector(fetcher, cfg.Profile, logger.Named("profile")),
		sink:      sink.NewCSVSink(cfg.Output.Path),
		logger:    logger,
		progress:  os.Stderr,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.engines == nil {
		engines, err := browser.Engines(cfg.Browser.Engines, logger.Named("browser"))
		if err != nil {
			return nil, err
		}
		p.engines = engines
	}

	return p, nil
}

// Inspector exposes the profile inspector for the batch command
func (p *Pipeline) Inspector() *profile.Inspector {
	return p.inspector
}

// Run performs one full scan. The store is cleared once a browser session
// is up. Every completed company is on disk before the next one starts,
// so on interruption the returned error wraps model.ErrInterrupted and the
// summary counts what was written.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{OutputPath: p.sink.Path()}
	defer func() { summary.Duration = time.Since(start) }()

	session, engine, err := browser.Acquire(ctx, browser.OptionsFromConfig(p.config.Browser), p.logger.Named("browser"), p.engines...)
	if err != nil {
		if ctx.Err() != nil {
			return summary, eris.Wrap(model.ErrInterrupted, "before browser start")
		}
		return summary, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.logger.Warn("browser close failed", zap.Error(err))
		}
	}()
	summary.Engine = engine
	p.printf("Using %s browser for scraping\n", engine)

	if err := p.sink.Reset(); err != nil {
		return summary, eris.Wrap(err, "reset store")
	}

	html, err := p.loadListing(ctx, session, summary)
	if err != nil {
		return summary, err
	}

	candidates, unique, err := p.extractor.Cards(html)
	if err != nil {
		return summary, eris.Wrap(err, "extract cards")
	}
	summary.UniqueCards = unique
	p.printf("Found %d unique company cards to process\n", unique)

	if err := p.ProcessCandidates(ctx, candidates, summary); err != nil {
		return summary, err
	}

	p.printf("Completed! Processed %d companies total.\n", summary.Processed)
	return summary, nil
}

// loadListing renders the listing until it stops growing and returns its markup
func (p *Pipeline) loadListing(ctx context.Context, session browser.Session, summary *Summary) (string, error) {
	src := p.config.Source
	bc := p.config.Browser

	if err := session.Navigate(ctx, src.ListingURL); err != nil {
		if ctx.Err() != nil {
			return "", eris.Wrap(model.ErrInterrupted, "loading listing")
		}
		return "", eris.Wrapf(err, "navigate to %s", src.ListingURL)
	}
	p.printf("Page loaded, waiting for companies to appear...\n")

	if err := session.WaitFor(ctx, src.CardSelector, bc.LoadTimeout); err != nil {
		if ctx.Err() != nil {
			return "", eris.Wrap(model.ErrInterrupted, "waiting for listing")
		}
		p.logger.Warn("no cards appeared before timeout", zap.Duration("timeout", bc.LoadTimeout), zap.Error(err))
	}
	if err := worker.Sleep(ctx, bc.SettleDelay); err != nil {
		return "", eris.Wrap(model.ErrInterrupted, "waiting for listing")
	}

	p.printf("Scrolling to load all companies...\n")
	res, err := p.detector.Run(ctx, session)
	if err != nil {
		return "", eris.Wrap(model.ErrInterrupted, "scrolling listing")
	}
	summary.ListingCount = res.Count
	summary.ListingDone = res.Complete

	html, err := session.HTML(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", eris.Wrap(model.ErrInterrupted, "reading listing")
		}
		return "", eris.Wrap(err, "read listing markup")
	}
	return html, nil
}

// ProcessCandidates resolves, inspects and appends each candidate in order,
// pausing between companies. A store write failure stops the run; a
// cancelled ctx stops it with model.ErrInterrupted.
func (p *Pipeline) ProcessCandidates(ctx context.Context, candidates iter.Seq[model.Candidate], summary *Summary) error {
	every := p.config.Output.ProgressEvery

	for c := range candidates {
		if ctx.Err() != nil {
			return eris.Wrap(model.ErrInterrupted, "processing companies")
		}

		p.printf("Processing company %d: %s\n", summary.Processed+1, c.Name)
		company, detailOK := p.processCandidate(ctx, c)

		// A company cut short by cancellation is not written half-resolved.
		if ctx.Err() != nil {
			return eris.Wrap(model.ErrInterrupted, "processing companies")
		}

		if err := p.sink.Append(company); err != nil {
			return eris.Wrapf(err, "append %s", c.Name)
		}

		summary.Processed = p.sink.Rows()
		if !detailOK {
			summary.DetailFailures++
		}
		if company.Website != "" {
			summary.Websites++
		}
		if company.ProfileURL != "" {
			summary.Profiles++
		}
		if company.MarkerPresent {
			summary.Markers++
		}

		p.printf("Saved: %s (%d/%d)\n", c.Name, summary.Processed, summary.UniqueCards)
		if every > 0 && summary.Processed%every == 0 {
			p.printf("Processed %d companies so far! You can stop anytime and check %s.\n", summary.Processed, p.sink.Path())
		}

		if err := p.limiter.WaitWithDelay(ctx, c.DetailURL, p.config.RateLimiting.CompanyPause); err != nil {
			return eris.Wrap(model.ErrInterrupted, "pausing between companies")
		}
	}

	return nil
}

// processCandidate builds the record for one candidate. Failed lookups
// leave the corresponding fields empty.
func (p *Pipeline) processCandidate(ctx context.Context, c model.Candidate) (model.Company, bool) {
	company := model.Company{Candidate: c}

	res := p.resolver.Resolve(ctx, c)
	if !res.OK() {
		p.logger.Warn("detail lookup degraded", zap.String("company", c.Name), zap.Error(res.Reason))
		return company, false
	}
	company.Website = res.Value.Website
	company.ProfileURL = res.Value.ProfileURL

	if company.ProfileURL == "" {
		return company, true
	}

	p.printf("Getting LinkedIn data: %s\n", c.Name)
	ins := p.inspector.Inspect(ctx, company.ProfileURL)
	if !ins.OK() {
		p.logger.Info("profile lookup degraded", zap.String("company", c.Name), zap.Error(ins.Reason))
		return company, true
	}
	company.ProfileDescription = ins.Value.Description
	company.MarkerPresent = ins.Value.MarkerPresent

	return company, true
}

func (p *Pipeline) printf(format string, args ...any) {
	if p.progress == nil {
		return
	}
	_, _ = fmt.Fprintf(p.progress, format, args...)
}
