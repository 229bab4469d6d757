package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/config"
)

// ErrBrowserClosed is returned by NewSession after Close
var ErrBrowserClosed = errors.New("browser service is closed")

// BrowserService launches one isolated Chrome instance per lookup.
// Slots bound how many instances run at the same time.
type BrowserService struct {
	config  config.BrowserConfig
	logger  *logrus.Logger
	metrics MetricsRecorder
	slots   chan struct{}

	mu     sync.RWMutex
	closed bool

	active        int64
	opened        int64
	startFailures int64
	lastStartErr  atomic.Value
}

// NewBrowserService creates a new browser service
func NewBrowserService(cfg config.BrowserConfig, logger *logrus.Logger, metrics MetricsRecorder) *BrowserService {
	maxSessions := cfg.MaxSessions
	if maxSessions < 1 {
		maxSessions = 1
	}

	logger.WithFields(logrus.Fields{
		"max_sessions": maxSessions,
		"headless":     cfg.Headless,
	}).Info("Browser service initialized")

	return &BrowserService{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		slots:   make(chan struct{}, maxSessions),
	}
}

// NewSession waits for a free slot and starts a fresh browser.
// Cancelling ctx kills the browser, so the session never outlives its caller.
func (s *BrowserService) NewSession(ctx context.Context) (BrowserSession, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrBrowserClosed
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for browser slot: %w", ctx.Err())
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(s.logger.Debugf))

	// the first Run on the tab context starts the browser and binds its lifetime to tabCtx
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		<-s.slots
		atomic.AddInt64(&s.startFailures, 1)
		s.lastStartErr.Store(err.Error())
		return nil, fmt.Errorf("start browser: %w", err)
	}

	atomic.StoreInt64(&s.startFailures, 0)
	atomic.AddInt64(&s.opened, 1)
	atomic.AddInt64(&s.active, 1)
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}

	session := &ChromeSession{
		id:  uuid.NewString(),
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		release: func() {
			<-s.slots
			atomic.AddInt64(&s.active, -1)
			if s.metrics != nil {
				s.metrics.SessionClosed()
			}
		},
	}

	s.logger.WithField("session_id", session.id).Debug("Browser session started")
	return session, nil
}

func (s *BrowserService) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-features", "TranslateUI"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(s.config.UserAgent),
	}

	if s.config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if s.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.config.ExecPath))
	}

	return opts
}

// GetStats returns session statistics
func (s *BrowserService) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"active_sessions": atomic.LoadInt64(&s.active),
		"opened_sessions": atomic.LoadInt64(&s.opened),
		"start_failures":  atomic.LoadInt64(&s.startFailures),
		"max_sessions":    cap(s.slots),
		"headless":        s.config.Headless,
	}
	if lastErr, ok := s.lastStartErr.Load().(string); ok {
		stats["last_start_error"] = lastErr
	}
	return stats
}

// Health returns browser service health status
func (s *BrowserService) Health() map[string]interface{} {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	status := "healthy"
	switch {
	case closed:
		status = "unhealthy"
	case atomic.LoadInt64(&s.startFailures) >= 3:
		status = "degraded"
	}

	return map[string]interface{}{
		"status": status,
		"stats":  s.GetStats(),
	}
}

// Close rejects new sessions. Running sessions are closed by their owners.
func (s *BrowserService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.logger.Info("Browser service closed")
	return nil
}

// ChromeSession implements BrowserSession on one chromedp tab
type ChromeSession struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	release func()
	once    sync.Once
}

// ID returns the session identifier
func (c *ChromeSession) ID() string {
	return c.id
}

// scope derives a context bound to the tab that also follows ctx
func (c *ChromeSession) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(c.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (c *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := c.scope(ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and returns the main document status
func (c *ChromeSession) Navigate(ctx context.Context, url string) (int, error) {
	runCtx, cancel := c.scope(ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

// WaitFor waits until selector is visible
func (c *ChromeSession) WaitFor(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, queryBy(selector)))
}

// Evaluate runs script and discards its result
func (c *ChromeSession) Evaluate(ctx context.Context, script string) error {
	return c.run(ctx, chromedp.Evaluate(script, nil))
}

// ScreenshotElement captures the element matching selector
func (c *ChromeSession) ScreenshotElement(ctx context.Context, selector, path string) error {
	var buf []byte
	if err := c.run(ctx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, queryBy(selector))); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}

// ScreenshotPage captures the whole page as PNG
func (c *ChromeSession) ScreenshotPage(ctx context.Context, path string) error {
	var buf []byte
	if err := c.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}

// Fill clears the input and types value into it
func (c *ChromeSession) Fill(ctx context.Context, selector, value string) error {
	by := queryBy(selector)
	return c.run(ctx,
		chromedp.Click(selector, by, chromedp.NodeVisible),
		chromedp.SetValue(selector, "", by),
		chromedp.SendKeys(selector, value, by),
	)
}

// Click clicks the element matching selector
func (c *ChromeSession) Click(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.Click(selector, queryBy(selector), chromedp.NodeVisible))
}

// InnerHTML returns the inner markup of selector
func (c *ChromeSession) InnerHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := c.run(ctx, chromedp.InnerHTML(selector, &html, queryBy(selector)))
	return html, err
}

// Close tears down the tab and kills the browser process
func (c *ChromeSession) Close() error {
	c.once.Do(func() {
		c.cancel()
		if c.release != nil {
			c.release()
		}
	})
	return nil
}

// queryBy selects XPath lookup for selectors starting with "/" and CSS otherwise
func queryBy(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
