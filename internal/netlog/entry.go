package netlog

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// Entry is one observed request and, once known, its outcome
type Entry struct {
	ID              int               `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	ResourceType    string            `json:"resource_type"`
	RequestHeaders  map[string]string `json:"request_headers,omitempty"`
	Status          int               `json:"status,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	Duration        time.Duration     `json:"duration,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Completed reports whether a response or a failure was recorded
func (e Entry) Completed() bool {
	return e.Status != 0 || e.Error != ""
}

// Failed reports a network failure or an HTTP error status
func (e Entry) Failed() bool {
	return e.Error != "" || e.Status >= 400
}

func (e Entry) clone() Entry {
	e.RequestHeaders = maps.Clone(e.RequestHeaders)
	e.ResponseHeaders = maps.Clone(e.ResponseHeaders)
	return e
}

func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s %s", e.ID, e.Timestamp.Format("15:04:05.000"), e.Method, e.URL)
	switch {
	case e.Error != "":
		fmt.Fprintf(&b, " FAILED: %s", e.Error)
	case e.Status != 0:
		fmt.Fprintf(&b, " -> %d (%s)", e.Status, e.Duration.Round(time.Millisecond))
	default:
		b.WriteString(" (pending)")
	}
	if e.ResourceType != "" {
		fmt.Fprintf(&b, " [%s]", e.ResourceType)
	}
	return b.String()
}

// Summary aggregates the log
type Summary struct {
	Total           int           `json:"total"`
	Completed       int           `json:"completed"`
	Pending         int           `json:"pending"`
	Failed          int           `json:"failed"`
	API             int           `json:"api"`
	AverageDuration time.Duration `json:"average_duration"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d requests: %d completed, %d pending, %d failed, %d api, avg %s",
		s.Total, s.Completed, s.Pending, s.Failed, s.API, s.AverageDuration.Round(time.Millisecond))
}
