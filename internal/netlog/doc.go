// Package netlog records a Playwright page's network traffic for test
// diagnostics.
//
// A Logger listens to the page's request, response and requestfailed events.
// Responses and failures are matched to their request by the Playwright
// request object, so two in-flight requests to the same URL stay separate.
// Network failures become data on the entry and are never returned as errors.
//
//	netLog := netlog.New(netlog.WithAPIMarker("/api/"))
//	netLog.Attach(page)
//	defer netLog.Detach()
//
//	_, err := page.Goto(baseURL + "/checkout")
//	...
//	if t.Failed() {
//	    t.Log(netLog.Formatted())
//	}
//
// Several Loggers may watch the same page. Detach never removes listeners
// from the page; a detached Logger's handlers stay registered for the page's
// lifetime and discard what they receive.
package netlog
