package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/forgo/storefront-e2e/internal/isolation"
	"github.com/forgo/storefront-e2e/internal/netlog"
)

// Config holds launcher settings
type Config struct {
	BaseURL        string
	Headless       bool
	SlowMo         time.Duration
	DefaultTimeout time.Duration
	APIMarker      string
	Logger         *slog.Logger
}

// Launcher owns one Playwright driver and one browser for a lane
type Launcher struct {
	cfg     Config
	profile Profile
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *slog.Logger
}

// Launch starts Playwright and the browser of lane
func Launch(lane isolation.Lane, cfg Config) (*Launcher, error) {
	profile, err := ProfileFor(lane)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	bt, err := browserType(pw, profile.Engine)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", profile.Engine, err)
	}

	logger.Info("browser launched",
		slog.String("lane", lane.String()),
		slog.String("engine", string(profile.Engine)),
		slog.String("device", profile.Device),
		slog.Bool("headless", cfg.Headless),
	)

	return &Launcher{cfg: cfg, profile: profile, pw: pw, browser: b, logger: logger}, nil
}

// Profile returns the lane profile the launcher runs
func (l *Launcher) Profile() Profile {
	return l.profile
}

// NewSession opens a fresh context and page with a Request Logger attached.
// Contexts share nothing, so sessions are isolated from each other.
func (l *Launcher) NewSession() (*Session, error) {
	opts, err := contextOptions(l.profile, l.pw.Devices, l.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	bctx, err := l.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	if l.cfg.DefaultTimeout > 0 {
		page.SetDefaultTimeout(float64(l.cfg.DefaultTimeout.Milliseconds()))
	}

	var netOpts []netlog.Option
	if l.cfg.APIMarker != "" {
		netOpts = append(netOpts, netlog.WithAPIMarker(l.cfg.APIMarker))
	}
	netOpts = append(netOpts, netlog.WithLogger(l.logger))
	net := netlog.New(netOpts...)
	net.Attach(page)

	return &Session{Context: bctx, Page: page, Net: net}, nil
}

// Close shuts the browser and the driver down
func (l *Launcher) Close() error {
	var errs []error
	if err := l.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := l.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

// Session is one isolated browser context with its page and network log
type Session struct {
	Context playwright.BrowserContext
	Page    playwright.Page
	Net     *netlog.Logger
}

// Close detaches the network log and closes the context
func (s *Session) Close() error {
	s.Net.Detach()
	return s.Context.Close()
}
