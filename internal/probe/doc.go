// Package probe checks optional page state without failing the test.
//
// TryGet bounds a lookup by a timeout and reports absence as None rather than
// as an error. A Playwright timeout counts as absence. Anything else, such as
// a closed page, is returned so real failures are not mistaken for a missing
// element. The Require variants are for elements a test cannot do without.
//
//	banner, err := probe.Text(ctx, page.Locator(".promo-banner"), 2*time.Second)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	if text, ok := banner.Get(); ok {
//	    t.Logf("promo: %s", text)
//	}
package probe
