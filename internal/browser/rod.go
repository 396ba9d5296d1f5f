package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RodEngine drives Chromium through go-rod's launcher
type RodEngine struct {
	logger *zap.Logger
}

// NewRodEngine creates the rod engine
func NewRodEngine(logger *zap.Logger) *RodEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RodEngine{logger: logger}
}

// Name implements Engine
func (e *RodEngine) Name() string { return "rod" }

// Start launches a browser process and opens a page
func (e *RodEngine) Start(ctx context.Context, opts Options) (Session, error) {
	startCtx := ctx
	if opts.StartTimeout > 0 {
		var cancel context.CancelFunc
		startCtx, cancel = context.WithTimeout(ctx, opts.StartTimeout)
		defer cancel()
	}

	l := launcher.New().
		Context(context.WithoutCancel(ctx)).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox).
		Set("disable-gpu")
	if opts.DisableDevShm {
		l = l.Set("disable-dev-shm-usage")
	}
	if opts.Width > 0 && opts.Height > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))
	}
	if opts.ExecPath != "" {
		l = l.Bin(opts.ExecPath)
	}

	controlURL, err := launchWithContext(startCtx, l)
	if err != nil {
		l.Kill()
		return nil, eris.Wrap(err, "launch browser")
	}

	// Cleanup waits for the process to exit, so it is only safe once
	// Launch has succeeded.
	kill := func() {
		l.Kill()
		l.Cleanup()
	}

	// Connect starts the event loop on the browser's own context, which
	// must outlive Start.
	base := context.WithoutCancel(ctx)
	browser := rod.New().ControlURL(controlURL).Context(base)
	if err := browser.Connect(); err != nil {
		kill()
		return nil, eris.Wrap(err, "connect browser")
	}

	page, err := browser.Context(startCtx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		kill()
		return nil, eris.Wrap(err, "open page")
	}

	if opts.Width > 0 && opts.Height > 0 {
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			e.logger.Debug("set viewport failed", zap.Error(err))
		}
	}
	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			e.logger.Debug("set user agent failed", zap.Error(err))
		}
	}

	return &rodSession{
		browser: browser,
		page:    page.Context(base),
		kill:    kill,
	}, nil
}

// launchWithContext runs the blocking launch, abandoning it when ctx ends
func launchWithContext(ctx context.Context, l *launcher.Launcher) (string, error) {
	type launched struct {
		url string
		err error
	}
	done := make(chan launched, 1)
	go func() {
		u, err := l.Launch()
		done <- launched{u, err}
	}()

	select {
	case res := <-done:
		return res.url, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
	kill    func()
	once    sync.Once
	err     error
}

// on binds the page to a context that ends with ctx or after timeout
func (s *rodSession) on(ctx context.Context, timeout time.Duration) (*rod.Page, context.CancelFunc) {
	runCtx, cancel := withCaller(s.page.GetContext(), ctx, timeout)
	return s.page.Context(runCtx), cancel
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p, cancel := s.on(ctx, 0)
	defer cancel()

	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p, cancel := s.on(ctx, timeout)
	defer cancel()

	_, err := p.Element(selector)
	return err
}

func (s *rodSession) Count(ctx context.Context, selector string) (int, error) {
	p, cancel := s.on(ctx, 0)
	defer cancel()

	res, err := p.Eval(fmt.Sprintf("() => "+countJS, selector))
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	p, cancel := s.on(ctx, 0)
	defer cancel()

	_, err := p.Eval("() => " + scrollToBottomJS)
	return err
}

func (s *rodSession) PressEnd(ctx context.Context) error {
	p, cancel := s.on(ctx, 0)
	defer cancel()

	return p.Keyboard.Press(input.End)
}

func (s *rodSession) ScrollBy(ctx context.Context, dy int) error {
	p, cancel := s.on(ctx, 0)
	defer cancel()

	_, err := p.Eval(fmt.Sprintf("() => "+scrollByJS, dy))
	return err
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	p, cancel := s.on(ctx, 0)
	defer cancel()

	return p.HTML()
}

func (s *rodSession) Close() error {
	s.once.Do(func() {
		s.err = s.browser.Close()
		s.kill()
	})
	return s.err
}
