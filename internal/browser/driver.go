// Package browser starts a headless rendering session for JavaScript
// driven listings, falling back across engines in a fixed order.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Session is one open browser tab. Close may be called more than once.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Count(ctx context.Context, selector string) (int, error)
	ScrollToBottom(ctx context.Context) error
	PressEnd(ctx context.Context) error
	ScrollBy(ctx context.Context, dy int) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Engine starts sessions for one browser automation backend.
// A failed Start must release everything it created.
type Engine interface {
	Name() string
	Start(ctx context.Context, opts Options) (Session, error)
}

// Options configure a session
type Options struct {
	Headless      bool
	Width         int
	Height        int
	NoSandbox     bool
	DisableDevShm bool
	ExecPath      string
	UserAgent     string
	StartTimeout  time.Duration
}

// OptionsFromConfig builds session options. CHROME_PATH overrides an
// empty ExecPath.
func OptionsFromConfig(cfg model.BrowserConfig) Options {
	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = os.Getenv("CHROME_PATH")
	}

	return Options{
		Headless:      cfg.Headless,
		Width:         cfg.Width,
		Height:        cfg.Height,
		NoSandbox:     cfg.NoSandbox,
		DisableDevShm: cfg.DisableDevShm,
		ExecPath:      execPath,
		UserAgent:     cfg.UserAgent,
		StartTimeout:  cfg.StartTimeout,
	}
}

// Engines returns the engines named in names, in order
func Engines(names []string, logger *zap.Logger) ([]Engine, error) {
	engines := make([]Engine, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "chromedp", "chrome":
			engines = append(engines, NewChromedpEngine(logger))
		case "rod":
			engines = append(engines, NewRodEngine(logger))
		case "":
			continue
		default:
			return nil, fmt.Errorf("unknown browser engine: %s", name)
		}
	}
	if len(engines) == 0 {
		return nil, fmt.Errorf("no browser engines configured")
	}
	return engines, nil
}

// Acquire starts the first engine that works and returns its session and
// name. The caller owns the session and must Close it.
func Acquire(ctx context.Context, opts Options, logger *zap.Logger, engines ...Engine) (Session, string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs []error
	for _, engine := range engines {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		session, err := engine.Start(ctx, opts)
		if err == nil {
			logger.Info("browser session started", zap.String("engine", engine.Name()))
			return session, engine.Name(), nil
		}

		logger.Warn("browser engine failed to start", zap.String("engine", engine.Name()), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", engine.Name(), err))
	}

	if len(errs) == 0 {
		return nil, "", eris.Wrap(model.ErrEngineUnavailable, "no engines to try")
	}
	return nil, "", eris.Wrapf(model.ErrEngineUnavailable, "all engines failed: %v", errors.Join(errs...))
}

// withCaller derives a context from the session's own context that is also
// cancelled when caller is done. The returned func must be called.
func withCaller(session, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(session, timeout)
	} else {
		ctx, cancel = context.WithCancel(session)
	}

	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Scripts shared by both engines
const (
	scrollToBottomJS = `window.scrollTo(0, document.body.scrollHeight)`
	scrollByJS       = `window.scrollBy(0, %d)`
	countJS          = `document.querySelectorAll(%q).length`
)
