package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

// LookupState is one step of a scrape
type LookupState string

const (
	StateIdle            LookupState = "idle"
	StateNavigating      LookupState = "navigating"
	StateAwaitingCaptcha LookupState = "awaiting_captcha"
	StateSolving         LookupState = "solving"
	StateSubmitting      LookupState = "submitting"
	StateAwaitingResults LookupState = "awaiting_results"
	StateParsed          LookupState = "parsed"
	StateFailed          LookupState = "failed"
)

// clearIntervalsScript stops the page from swapping the captcha image while it is being solved
const clearIntervalsScript = `(() => { for (let i = 1; i < 99999; i++) { clearInterval(i); } return true; })()`

// diagnosticTimeout bounds best-effort screenshots taken after a failure
const diagnosticTimeout = 5 * time.Second

// Scraper drives one browser session through the search form
type Scraper struct {
	config  config.BrowserConfig
	browser BrowserServiceInterface
	solver  CaptchaServiceInterface
	parser  ParserServiceInterface
	logger  *logrus.Logger
}

// NewScraper creates the scrape orchestrator
func NewScraper(cfg config.BrowserConfig, browser BrowserServiceInterface, solver CaptchaServiceInterface, parser ParserServiceInterface, logger *logrus.Logger) *Scraper {
	return &Scraper{
		config:  cfg,
		browser: browser,
		solver:  solver,
		parser:  parser,
		logger:  logger,
	}
}

// lookup is the state of a single Fetch call
type lookup struct {
	id          string
	state       LookupState
	started     time.Time
	session     BrowserSession
	captchaPath string
	log         *logrus.Entry
}

func (l *lookup) enter(state LookupState) {
	l.state = state
	l.log.WithFields(logrus.Fields{
		"state":   state,
		"elapsed": time.Since(l.started).String(),
	}).Debug("Lookup state changed")
}

// Fetch performs one attempt: navigate, solve the captcha, submit and parse.
// The browser session is closed on every return path.
func (s *Scraper) Fetch(ctx context.Context, url string) (cases models.CaseList, err error) {
	l := &lookup{
		id:      uuid.NewString(),
		state:   StateIdle,
		started: time.Now(),
	}
	l.log = s.logger.WithFields(logrus.Fields{
		"lookup_id": l.id,
		"url":       url,
	})

	defer func() {
		if r := recover(); r != nil {
			err = models.Unavailable("unexpected failure while scraping", fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			err = classify(err)
			s.fail(ctx, l, err)
		}
		if l.session != nil {
			if closeErr := l.session.Close(); closeErr != nil {
				l.log.WithError(closeErr).Warn("Failed to close browser session")
			}
		}
		s.discardArtifact(l)
	}()

	if err := os.MkdirAll(s.config.TempDir, 0o755); err != nil {
		return nil, models.Unavailable("cannot prepare scratch directory", err)
	}

	l.enter(StateNavigating)
	session, err := s.browser.NewSession(ctx)
	if err != nil {
		return nil, models.Unavailable("cannot start browser session", err)
	}
	l.session = session

	var status int
	err = s.within(ctx, s.config.NavigationTimeout, func(stepCtx context.Context) error {
		var navErr error
		status, navErr = session.Navigate(stepCtx, url)
		return navErr
	})
	if err != nil {
		return nil, stepFailure("navigating to the registry", err)
	}
	if status == 0 || status >= 400 {
		return nil, models.Unavailable(fmt.Sprintf("registry responded with status %d", status), nil)
	}
	s.diagnostic(ctx, l, "navigated", false)

	l.enter(StateAwaitingCaptcha)
	err = s.within(ctx, s.config.CaptchaTimeout, func(stepCtx context.Context) error {
		return session.WaitFor(stepCtx, s.config.Selectors.CaptchaImage)
	})
	if err != nil {
		if isTimeout(err) {
			return nil, models.Unavailable("timeout waiting for the captcha image", err)
		}
		if ctx.Err() != nil {
			return nil, models.Unavailable("lookup cancelled while waiting for the captcha image", err)
		}
		return nil, models.CaptchaFailure("captcha image did not appear", err)
	}

	err = s.within(ctx, s.config.NavigationTimeout, func(stepCtx context.Context) error {
		return session.Evaluate(stepCtx, clearIntervalsScript)
	})
	if err != nil {
		return nil, stepFailure("freezing the captcha", err)
	}

	l.captchaPath = filepath.Join(s.config.TempDir, l.id+"-captcha.png")
	err = s.within(ctx, s.config.NavigationTimeout, func(stepCtx context.Context) error {
		return session.ScreenshotElement(stepCtx, s.config.Selectors.CaptchaImage, l.captchaPath)
	})
	if err != nil {
		return nil, stepFailure("capturing the captcha image", err)
	}

	l.enter(StateSolving)
	code, err := s.solver.Solve(ctx, l.captchaPath)
	s.discardArtifact(l)
	if err != nil {
		if _, classified := models.KindOf(err); classified {
			return nil, err
		}
		return nil, models.CaptchaFailure("captcha solving failed", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, models.CaptchaFailure("captcha service returned an empty code", nil)
	}

	l.enter(StateSubmitting)
	err = s.within(ctx, s.config.NavigationTimeout, func(stepCtx context.Context) error {
		if err := session.Fill(stepCtx, s.config.Selectors.CaptchaInput, code); err != nil {
			return err
		}
		return session.Click(stepCtx, s.config.Selectors.Submit)
	})
	if err != nil {
		return nil, stepFailure("submitting the captcha code", err)
	}
	s.diagnostic(ctx, l, "submitted", false)

	l.enter(StateAwaitingResults)
	err = s.within(ctx, s.config.ResultsTimeout, func(stepCtx context.Context) error {
		return session.WaitFor(stepCtx, anyOf(s.config.Selectors.Results, s.config.Selectors.Empty))
	})
	if err != nil {
		return nil, stepFailure("waiting for results", err)
	}
	s.diagnostic(ctx, l, "results", false)

	var html string
	err = s.within(ctx, s.config.NavigationTimeout, func(stepCtx context.Context) error {
		var readErr error
		html, readErr = session.InnerHTML(stepCtx, s.config.Selectors.Results)
		return readErr
	})
	if err != nil {
		return nil, stepFailure("reading results", err)
	}

	cases, err = s.parser.Parse(html)
	if err != nil {
		return nil, err
	}

	l.enter(StateParsed)
	l.log.WithFields(logrus.Fields{
		"records":  len(cases),
		"duration": time.Since(l.started).String(),
	}).Info("Lookup completed")

	return cases, nil
}

// within runs fn with its own timeout derived from ctx
func (s *Scraper) within(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}

func (s *Scraper) fail(ctx context.Context, l *lookup, err error) {
	failedIn := l.state
	l.enter(StateFailed)

	kind, _ := models.KindOf(err)
	l.log.WithFields(logrus.Fields{
		"failed_in": failedIn,
		"kind":      kind,
		"duration":  time.Since(l.started).String(),
	}).WithError(err).Warn("Lookup failed")

	s.diagnostic(ctx, l, "error", true)
}

// diagnostic saves a full page screenshot. Errors are logged and never returned.
func (s *Scraper) diagnostic(ctx context.Context, l *lookup, name string, always bool) {
	if l.session == nil || (!always && !s.config.Screenshots) {
		return
	}

	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), diagnosticTimeout)
	defer cancel()

	path := filepath.Join(s.config.TempDir, fmt.Sprintf("%s-%s.png", l.id, name))

	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("panic", r).Debug("Diagnostic screenshot panicked")
		}
	}()
	if err := l.session.ScreenshotPage(shotCtx, path); err != nil {
		l.log.WithError(err).Debug("Diagnostic screenshot failed")
		return
	}
	l.log.WithField("path", path).Debug("Diagnostic screenshot saved")
}

func (s *Scraper) discardArtifact(l *lookup) {
	if l.captchaPath == "" {
		return
	}
	if err := os.Remove(l.captchaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.log.WithError(err).Debug("Failed to remove captcha image")
	}
}

// classify wraps unclassified errors as upstream unavailability
func classify(err error) error {
	if _, ok := models.KindOf(err); ok {
		return err
	}
	return models.Unavailable("unexpected failure while scraping", err)
}

func stepFailure(step string, err error) error {
	if isTimeout(err) {
		return models.Unavailable("timeout while "+step, err)
	}
	return models.Unavailable("failed while "+step, err)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// anyOf joins CSS selectors into a selector group
func anyOf(selectors ...string) string {
	var parts []string
	for _, sel := range selectors {
		if sel = strings.TrimSpace(sel); sel != "" {
			parts = append(parts, sel)
		}
	}
	return strings.Join(parts, ", ")
}
