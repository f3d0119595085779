package netlog

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage is a page's event surface backed by Playwright's own emitter
type fakePage struct {
	playwright.EventEmitter
}

func newFakePage() *fakePage {
	return &fakePage{EventEmitter: playwright.NewEventEmitter()}
}

func (p *fakePage) request(r playwright.Request)   { p.Emit(EventRequest, r) }
func (p *fakePage) response(r playwright.Response) { p.Emit(EventResponse, r) }
func (p *fakePage) failed(r playwright.Request)    { p.Emit(EventRequestFailed, r) }

type fakeRequest struct {
	playwright.Request
	method, url, resourceType string
	headers                   map[string]string
	failure                   error
}

func (r *fakeRequest) Method() string             { return r.method }
func (r *fakeRequest) URL() string                { return r.url }
func (r *fakeRequest) ResourceType() string       { return r.resourceType }
func (r *fakeRequest) Headers() map[string]string { return r.headers }
func (r *fakeRequest) Failure() error             { return r.failure }

func get(url string) *fakeRequest {
	return &fakeRequest{method: "GET", url: url, resourceType: "fetch", headers: map[string]string{"accept": "*/*"}}
}

type fakeResponse struct {
	playwright.Response
	req     playwright.Request
	status  int
	headers map[string]string
}

func (r *fakeResponse) Request() playwright.Request { return r.req }
func (r *fakeResponse) Status() int                 { return r.status }
func (r *fakeResponse) Headers() map[string]string  { return r.headers }

func respond(req playwright.Request, status int) *fakeResponse {
	return &fakeResponse{req: req, status: status, headers: map[string]string{"content-type": "application/json"}}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLogger() (*Logger, *fakePage, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)}
	l := New(WithClock(clock.now))
	page := newFakePage()
	l.Attach(page)
	return l, page, clock
}

func TestLogger_CorrelatesSingleRequest(t *testing.T) {
	t.Parallel()

	l, page, clock := newTestLogger()
	req := get("http://localhost:3000/shop")

	page.request(req)
	clock.advance(120 * time.Millisecond)
	page.response(respond(req, 200))

	logs := l.Logs()
	require.Len(t, logs, 1)
	e := logs[0]
	assert.Equal(t, 1, e.ID)
	assert.Equal(t, "GET", e.Method)
	assert.Equal(t, "http://localhost:3000/shop", e.URL)
	assert.Equal(t, "fetch", e.ResourceType)
	assert.Equal(t, 200, e.Status)
	assert.Equal(t, 120*time.Millisecond, e.Duration)
	assert.Equal(t, "application/json", e.ResponseHeaders["content-type"])
	assert.True(t, e.Completed())
}

func TestLogger_SameURLInFlightUsesRequestIdentity(t *testing.T) {
	t.Parallel()

	l, page, clock := newTestLogger()
	first := get("http://localhost:8080/api/cart")
	second := get("http://localhost:8080/api/cart")

	page.request(first)
	clock.advance(10 * time.Millisecond)
	page.request(second)
	clock.advance(10 * time.Millisecond)
	page.response(respond(second, 409))
	clock.advance(30 * time.Millisecond)
	page.response(respond(first, 200))

	logs := l.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, 200, logs[0].Status)
	assert.Equal(t, 50*time.Millisecond, logs[0].Duration)
	assert.Equal(t, 409, logs[1].Status)
	assert.Equal(t, 10*time.Millisecond, logs[1].Duration)
}

func TestLogger_FailuresAreRecordedNotRaised(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()
	down := get("http://localhost:8080/api/orders")
	down.failure = errors.New("net::ERR_CONNECTION_REFUSED")
	broken := get("http://localhost:8080/api/products")
	ok := get("http://localhost:3000/favicon.ico")

	page.request(down)
	page.request(broken)
	page.request(ok)
	page.failed(down)
	page.response(respond(broken, 500))
	page.response(respond(ok, 200))

	failed := l.FailedRequests()
	require.Len(t, failed, 2)
	assert.Equal(t, "net::ERR_CONNECTION_REFUSED", failed[0].Error)
	assert.Equal(t, 500, failed[1].Status)
}

func TestLogger_APILogs(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()
	page.request(get("http://localhost:3000/checkout"))
	page.request(get("http://localhost:8080/api/cart/total"))
	page.request(get("http://localhost:3000/static/app.js?from=/api/"))

	api := l.APILogs()
	require.Len(t, api, 1)
	assert.Equal(t, "http://localhost:8080/api/cart/total", api[0].URL)

	custom := New(WithAPIMarker("/graphql"))
	page2 := newFakePage()
	custom.Attach(page2)
	page2.request(get("http://localhost:8080/graphql"))
	assert.Len(t, custom.APILogs(), 1)
}

func TestLogger_ReattachDetachesFirst(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()
	l.Attach(page)

	page.request(get("http://localhost:3000/"))
	assert.Len(t, l.Logs(), 1, "one attachment must record one entry")

	other := newFakePage()
	l.Attach(other)
	page.request(get("http://localhost:3000/old"))
	other.request(get("http://localhost:3000/new"))

	logs := l.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, "http://localhost:3000/new", logs[1].URL)
}

func TestLogger_DetachIsIdempotent(t *testing.T) {
	t.Parallel()

	l := New()
	l.Detach()
	assert.False(t, l.Attached())

	page := newFakePage()
	l.Attach(page)
	assert.True(t, l.Attached())
	l.Detach()
	l.Detach()
	assert.False(t, l.Attached())

	page.request(get("http://localhost:3000/"))
	assert.Empty(t, l.Logs())
}

func TestLogger_StaleHandlersAreIgnored(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()
	req := get("http://localhost:3000/account")
	page.request(req)

	// The page keeps delivering to a detached logger's handlers
	l.Detach()
	page.response(respond(req, 200))
	page.failed(req)

	logs := l.Logs()
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Completed())
}

func TestLogger_DetachLeavesOtherLoggersListening(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		detach       func(a, b *Logger)
		wantA, wantB int
	}{
		{"first detaches", func(a, _ *Logger) { a.Detach() }, 0, 1},
		{"second detaches", func(_, b *Logger) { b.Detach() }, 1, 0},
		{"both detach", func(a, b *Logger) { a.Detach(); b.Detach() }, 0, 0},
		{"neither detaches", func(_, _ *Logger) {}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := playwright.NewEventEmitter()
			a, b := New(), New()
			a.Attach(page)
			b.Attach(page)

			tt.detach(a, b)
			req := get("http://localhost:8080/api/cart")
			page.Emit(EventRequest, req)
			page.Emit(EventResponse, respond(req, 200))

			assert.Len(t, a.Logs(), tt.wantA)
			assert.Len(t, b.Logs(), tt.wantB)
			assert.Equal(t, tt.wantA == 1, a.Attached())
			assert.Equal(t, tt.wantB == 1, b.Attached())
			if tt.wantB == 1 {
				assert.True(t, b.Logs()[0].Completed())
			}
		})
	}
}

func TestLogger_ClearKeepsListeners(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()
	before := get("http://localhost:3000/a")
	page.request(before)
	page.request(get("http://localhost:3000/b"))

	l.Clear()
	assert.Empty(t, l.Logs())
	assert.True(t, l.Attached())

	page.response(respond(before, 200))
	page.request(get("http://localhost:3000/c"))

	logs := l.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, 1, logs[0].ID)
	assert.Equal(t, "http://localhost:3000/c", logs[0].URL)
}

func TestLogger_Summary(t *testing.T) {
	t.Parallel()

	l, page, clock := newTestLogger()
	a := get("http://localhost:8080/api/a")
	b := get("http://localhost:3000/b")
	c := get("http://localhost:3000/c")

	page.request(a)
	page.request(b)
	page.request(c)
	clock.advance(100 * time.Millisecond)
	page.response(respond(a, 200))
	clock.advance(200 * time.Millisecond)
	page.response(respond(b, 404))

	s := l.Summary()
	assert.Equal(t, Summary{
		Total:           3,
		Completed:       2,
		Pending:         1,
		Failed:          1,
		API:             1,
		AverageDuration: 200 * time.Millisecond,
	}, s)
}

func TestLogger_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()
	page.request(get("http://localhost:3000/"))

	logs := l.Logs()
	logs[0].URL = "mutated"
	logs[0].RequestHeaders["accept"] = "mutated"

	fresh := l.Logs()
	assert.Equal(t, "http://localhost:3000/", fresh[0].URL)
	assert.Equal(t, "*/*", fresh[0].RequestHeaders["accept"])
}

func TestLogger_Formatted(t *testing.T) {
	t.Parallel()

	l, page, clock := newTestLogger()
	ok := get("http://localhost:3000/shop")
	bad := get("http://localhost:8080/api/login")
	bad.method = "POST"
	bad.failure = errors.New("net::ERR_ABORTED")

	page.request(ok)
	page.request(bad)
	clock.advance(42 * time.Millisecond)
	page.response(respond(ok, 200))
	page.failed(bad)

	out := l.Formatted()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "2 requests")
	assert.Contains(t, lines[1], "#1")
	assert.Contains(t, lines[1], "-> 200 (42ms)")
	assert.Contains(t, lines[2], "POST http://localhost:8080/api/login FAILED: net::ERR_ABORTED")
}

func TestLogger_ConcurrentDispatchAndReads(t *testing.T) {
	t.Parallel()

	l, page, _ := newTestLogger()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			r := get("http://localhost:8080/api/poll")
			page.request(r)
			page.response(respond(r, 200))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = l.Summary()
			_ = l.APILogs()
		}
	}()
	wg.Wait()

	s := l.Summary()
	assert.Equal(t, 200, s.Total)
	assert.Equal(t, 200, s.Completed)
}
