package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ChromedpEngine drives Chrome over the DevTools protocol
type ChromedpEngine struct {
	logger *zap.Logger
}

// NewChromedpEngine creates the chromedp engine
func NewChromedpEngine(logger *zap.Logger) *ChromedpEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromedpEngine{logger: logger}
}

// Name implements Engine
func (e *ChromedpEngine) Name() string { return "chromedp" }

// Start launches Chrome and opens a blank tab
func (e *ChromedpEngine) Start(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", opts.DisableDevShm),
	)
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// The browser outlives Start, so it hangs off a context the caller
	// cannot cancel. Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		e.logger.Debug(fmt.Sprintf(format, args...))
	}))

	cleanup := func() {
		tabCancel()
		allocCancel()
	}

	stop := context.AfterFunc(ctx, cleanup)
	var timer *time.Timer
	if opts.StartTimeout > 0 {
		timer = time.AfterFunc(opts.StartTimeout, cleanup)
	}

	err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank"))

	expired := timer != nil && !timer.Stop()
	cancelled := !stop()
	if err != nil || expired || cancelled {
		cleanup()
		if err == nil {
			err = fmt.Errorf("start aborted")
		}
		return nil, eris.Wrap(err, "start chrome")
	}

	return &chromedpSession{ctx: tabCtx, cancel: cleanup}, nil
}

type chromedpSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := withCaller(s.ctx, ctx, timeout)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, 0, chromedp.Navigate(url))
}

func (s *chromedpSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromedpSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := s.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(countJS, selector), &n))
	return n, err
}

func (s *chromedpSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, 0, chromedp.Evaluate(scrollToBottomJS, nil))
}

func (s *chromedpSession) PressEnd(ctx context.Context) error {
	return s.run(ctx, 0, chromedp.KeyEvent(kb.End))
}

func (s *chromedpSession) ScrollBy(ctx context.Context, dy int) error {
	return s.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(scrollByJS, dy), nil))
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) Close() error {
	s.once.Do(s.cancel)
	return nil
}
