// Package browser drives a headless Chrome through the DevTools protocol for
// pages whose content only appears after client-side interaction.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	EngineChrome = "chrome"
	EngineRemote = "remote"
)

type Config struct {
	// Engine is EngineChrome to launch a local browser or EngineRemote to
	// attach to RemoteURL.
	Engine    string
	RemoteURL string
	// LogDest receives the browser protocol log. Empty discards it.
	LogDest string
	Timeout time.Duration
	// RevealWait bounds the wait for a clicked reveal control to go away.
	RevealWait time.Duration
}

// Renderer returns the markup of a page after it has been rendered and,
// when present, after the element matched by revealSelector was clicked.
type Renderer interface {
	Render(ctx context.Context, pageURL, revealSelector string) (string, error)
	Close() error
}

// Launcher opens a Renderer that the caller owns and must Close.
type Launcher func(ctx context.Context) (Renderer, error)

func NewLauncher(cfg Config, logger *zap.Logger) Launcher {
	return func(ctx context.Context) (Renderer, error) {
		return Open(ctx, cfg, logger)
	}
}

type Session struct {
	cfg    Config
	logger *zap.Logger

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logOut        io.WriteCloser
}

func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RevealWait <= 0 {
		cfg.RevealWait = 30 * time.Second
	}

	s := &Session{cfg: cfg, logger: logger}

	logOut, err := openLog(cfg.LogDest)
	if err != nil {
		return nil, err
	}
	s.logOut = logOut

	switch cfg.Engine {
	case EngineChrome, "":
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("blink-settings", "imagesEnabled=false"),
		)
		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	case EngineRemote:
		if cfg.RemoteURL == "" {
			s.Close()
			return nil, errors.New("remote browser engine needs a DevTools url")
		}
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown browser engine %q, needs one: (%s, %s)", cfg.Engine, EngineChrome, EngineRemote)
	}

	logf := func(format string, args ...any) {
		fmt.Fprintf(s.logOut, format+"\n", args...)
	}
	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(logf),
		chromedp.WithErrorf(logf),
	)

	startCtx, cancel := s.taskContext(ctx, cfg.Timeout)
	defer cancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("browser session opened", zap.String("engine", cfg.Engine))
	return s, nil
}

// taskContext derives a context from the browser context that also ends
// when ctx is cancelled.
func (s *Session) taskContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	taskCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return taskCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) Render(ctx context.Context, pageURL, revealSelector string) (string, error) {
	taskCtx, cancel := s.taskContext(ctx, s.cfg.Timeout)
	defer cancel()

	var reveal []*cdp.Node
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", pageURL, err)
	}

	if revealSelector != "" {
		err = chromedp.Run(taskCtx, chromedp.Nodes(revealSelector, &reveal, chromedp.ByQuery, chromedp.AtLeast(0)))
		if err != nil {
			return "", fmt.Errorf("failed to query %s: %w", revealSelector, err)
		}
	}

	if len(reveal) > 0 {
		s.logger.Debug("clicking reveal control", zap.String("selector", revealSelector))
		err = chromedp.Run(taskCtx, chromedp.Click(revealSelector, chromedp.ByQuery))
		if err != nil {
			return "", fmt.Errorf("failed to click %s: %w", revealSelector, err)
		}

		waitCtx, waitCancel := context.WithTimeout(taskCtx, s.cfg.RevealWait)
		err = chromedp.Run(waitCtx, chromedp.WaitNotPresent(revealSelector, chromedp.ByQuery))
		waitCancel()
		if err != nil {
			if taskCtx.Err() != nil {
				return "", fmt.Errorf("failed to reveal %s: %w", pageURL, taskCtx.Err())
			}
			s.logger.Warn("reveal control still present, reading page as is", zap.String("url", pageURL))
		}
	}

	var html string
	err = chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", pageURL, err)
	}
	return html, nil
}

func (s *Session) Close() error {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	if s.logOut != nil {
		err := s.logOut.Close()
		s.logOut = nil
		return err
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openLog(dest string) (io.WriteCloser, error) {
	if dest == "" || dest == os.DevNull {
		return nopWriteCloser{io.Discard}, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser log %s: %w", dest, err)
	}
	return f, nil
}
