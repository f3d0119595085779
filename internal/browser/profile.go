package browser

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/forgo/storefront-e2e/internal/isolation"
)

// ErrUnknownDevice is returned when Playwright has no descriptor for a
// lane's device
var ErrUnknownDevice = errors.New("unknown device descriptor")

// Engine is a Playwright browser engine
type Engine string

const (
	EngineChromium Engine = "chromium"
	EngineFirefox  Engine = "firefox"
	EngineWebKit   Engine = "webkit"
)

// Profile is how a lane runs: which engine, and which device it emulates
type Profile struct {
	Lane   isolation.Lane
	Engine Engine
	Device string // Playwright device name; empty for desktop
}

// Mobile reports whether the profile emulates a device
func (p Profile) Mobile() bool {
	return p.Device != ""
}

var profiles = map[isolation.Lane]Profile{
	isolation.LaneDefault:      {Lane: isolation.LaneDefault, Engine: EngineChromium},
	isolation.LaneChromium:     {Lane: isolation.LaneChromium, Engine: EngineChromium},
	isolation.LaneFirefox:      {Lane: isolation.LaneFirefox, Engine: EngineFirefox},
	isolation.LaneWebKit:       {Lane: isolation.LaneWebKit, Engine: EngineWebKit},
	isolation.LaneMobileChrome: {Lane: isolation.LaneMobileChrome, Engine: EngineChromium, Device: "Pixel 5"},
	isolation.LaneMobileSafari: {Lane: isolation.LaneMobileSafari, Engine: EngineWebKit, Device: "iPhone 13"},
}

// ProfileFor returns the profile of lane
func ProfileFor(lane isolation.Lane) (Profile, error) {
	p, ok := profiles[lane]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", isolation.ErrUnknownLane, lane)
	}
	return p, nil
}

func browserType(pw *playwright.Playwright, e Engine) (playwright.BrowserType, error) {
	switch e {
	case EngineChromium:
		return pw.Chromium, nil
	case EngineFirefox:
		return pw.Firefox, nil
	case EngineWebKit:
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported engine %q", e)
}

// contextOptions builds the options of a new browser context for p.
// devices is Playwright's descriptor table.
func contextOptions(p Profile, devices map[string]*playwright.DeviceDescriptor, baseURL string) (playwright.BrowserNewContextOptions, error) {
	var opts playwright.BrowserNewContextOptions
	if baseURL != "" {
		opts.BaseURL = playwright.String(baseURL)
	}
	if !p.Mobile() {
		return opts, nil
	}

	d, ok := devices[p.Device]
	if !ok || d == nil {
		return opts, fmt.Errorf("%w: %q", ErrUnknownDevice, p.Device)
	}
	opts.UserAgent = playwright.String(d.UserAgent)
	opts.Viewport = d.Viewport
	opts.Screen = d.Screen
	opts.DeviceScaleFactor = playwright.Float(d.DeviceScaleFactor)
	opts.IsMobile = playwright.Bool(d.IsMobile)
	opts.HasTouch = playwright.Bool(d.HasTouch)
	return opts, nil
}
