// Package browser runs Playwright for one lane.
//
// Each lane maps to an engine and, for the mobile lanes, a Playwright device
// descriptor. A Launcher owns the driver and the browser; every Session is a
// fresh browser context with its own page and an attached netlog.Logger.
//
//	l, err := browser.Launch(isolation.LaneMobileSafari, browser.Config{
//	    BaseURL:        cfg.Browser.BaseURL,
//	    Headless:       cfg.Browser.Headless,
//	    DefaultTimeout: cfg.Browser.DefaultTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	s, err := l.NewSession()
//	...
//	defer s.Close()
package browser
