package netlog

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Playwright page event names
const (
	EventRequest       = "request"
	EventResponse      = "response"
	EventRequestFailed = "requestfailed"
)

// DefaultAPIMarker identifies backend API calls by URL path
const DefaultAPIMarker = "/api/"

// Emitter is the event surface of a playwright.Page
type Emitter interface {
	On(name string, handler interface{})
}

var _ Emitter = (playwright.Page)(nil)

// Logger records a page's network activity.
// Playwright dispatches events on its own goroutine while tests read from
// theirs, so all state is behind mu.
type Logger struct {
	mu        sync.Mutex
	entries   []*Entry
	inflight  map[playwright.Request]*Entry
	nextID    int
	apiMarker string
	now       func() time.Time
	logger    *slog.Logger

	// generation changes on every Attach and Detach; handlers of an older
	// generation drop their events. Handlers are never removed from the
	// page: playwright-go matches listeners by code pointer, which every
	// Logger's handlers share.
	generation int
	attached   Emitter
}

// Option configures a Logger
type Option func(*Logger)

// WithAPIMarker sets the URL path fragment APILogs filters on
func WithAPIMarker(marker string) Option {
	return func(l *Logger) {
		if marker != "" {
			l.apiMarker = marker
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger traces recorded events at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a detached logger
func New(opts ...Option) *Logger {
	l := &Logger{
		inflight:  make(map[playwright.Request]*Entry),
		nextID:    1,
		apiMarker: DefaultAPIMarker,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Attach subscribes to page's request, response and requestfailed events.
// Any previous attachment is detached first.
func (l *Logger) Attach(page Emitter) {
	l.Detach()

	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.attached = page
	l.mu.Unlock()

	// Subscribing outside the lock: an emitter may dispatch synchronously
	page.On(EventRequest, func(r playwright.Request) { l.recordRequest(gen, r) })
	page.On(EventResponse, func(r playwright.Response) { l.recordResponse(gen, r) })
	page.On(EventRequestFailed, func(r playwright.Request) { l.recordFailure(gen, r) })
}

// Detach stops recording. The page keeps the handlers, which drop every
// later event. Other Loggers on the same page are unaffected. It is safe to
// call when not attached.
func (l *Logger) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.attached == nil {
		return
	}
	l.attached = nil
	l.generation++
}

// Attached reports whether the logger is listening to a page
func (l *Logger) Attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attached != nil
}

func (l *Logger) recordRequest(gen int, r playwright.Request) {
	ts := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return
	}

	e := &Entry{
		ID:             l.nextID,
		Timestamp:      ts,
		Method:         r.Method(),
		URL:            r.URL(),
		ResourceType:   r.ResourceType(),
		RequestHeaders: r.Headers(),
	}
	l.nextID++
	l.entries = append(l.entries, e)
	l.inflight[r] = e
}

func (l *Logger) recordResponse(gen int, r playwright.Response) {
	ts := l.now()
	req := r.Request()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return
	}

	e, ok := l.inflight[req]
	if !ok {
		// Request was issued before Attach or before Clear
		return
	}
	delete(l.inflight, req)
	e.Status = r.Status()
	e.ResponseHeaders = r.Headers()
	e.Duration = ts.Sub(e.Timestamp)
	l.logger.Debug("response", slog.Int("id", e.ID), slog.String("url", e.URL), slog.Int("status", e.Status))
}

func (l *Logger) recordFailure(gen int, r playwright.Request) {
	ts := l.now()
	msg := "request failed"
	if err := r.Failure(); err != nil {
		msg = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return
	}

	e, ok := l.inflight[r]
	if !ok {
		return
	}
	delete(l.inflight, r)
	e.Error = msg
	e.Duration = ts.Sub(e.Timestamp)
	l.logger.Debug("request failed", slog.Int("id", e.ID), slog.String("url", e.URL), slog.String("error", msg))
}

// Logs returns a copy of every entry in request order
func (l *Logger) Logs() []Entry {
	return l.filter(func(Entry) bool { return true })
}

// APILogs returns the entries whose URL path contains the API marker
func (l *Logger) APILogs() []Entry {
	return l.filter(l.isAPI)
}

// FailedRequests returns entries that failed at the network layer or got
// a status of 400 or above
func (l *Logger) FailedRequests() []Entry {
	return l.filter(Entry.Failed)
}

// Summary aggregates the current log
func (l *Logger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Summary
	var total time.Duration
	for _, e := range l.entries {
		s.Total++
		if e.Completed() {
			s.Completed++
			total += e.Duration
		} else {
			s.Pending++
		}
		if e.Failed() {
			s.Failed++
		}
		if l.isAPI(*e) {
			s.API++
		}
	}
	if s.Completed > 0 {
		s.AverageDuration = total / time.Duration(s.Completed)
	}
	return s
}

// Formatted renders the log for a failure report
func (l *Logger) Formatted() string {
	logs := l.Logs()
	var b strings.Builder
	b.WriteString(l.Summary().String())
	for _, e := range logs {
		b.WriteByte('\n')
		b.WriteString(e.String())
	}
	return b.String()
}

// Clear drops recorded entries and restarts ids. Listeners stay attached.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.inflight = make(map[playwright.Request]*Entry)
	l.nextID = 1
}

func (l *Logger) filter(keep func(Entry) bool) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if keep(*e) {
			out = append(out, e.clone())
		}
	}
	return out
}

func (l *Logger) isAPI(e Entry) bool {
	if u, err := url.Parse(e.URL); err == nil && u.Path != "" {
		return strings.Contains(u.Path, l.apiMarker)
	}
	return strings.Contains(e.URL, l.apiMarker)
}
