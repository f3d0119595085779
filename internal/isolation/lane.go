package isolation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLane is returned for a lane outside the known set
var ErrUnknownLane = errors.New("unknown lane")

// Lane is one parallel execution context of the test runner: a browser
// engine or a device emulation profile.
type Lane string

const (
	LaneDefault      Lane = "default" // sequential runs; no isolation needed
	LaneChromium     Lane = "chromium"
	LaneFirefox      Lane = "firefox"
	LaneWebKit       Lane = "webkit"
	LaneMobileChrome Lane = "mobile-chrome"
	LaneMobileSafari Lane = "mobile-safari"
)

// knownLanes is ordered; the position is the lane index used in derived
// order numbers and must never be reordered.
var knownLanes = []Lane{
	LaneDefault,
	LaneChromium,
	LaneFirefox,
	LaneWebKit,
	LaneMobileChrome,
	LaneMobileSafari,
}

// Lanes returns every known lane
func Lanes() []Lane {
	out := make([]Lane, len(knownLanes))
	copy(out, knownLanes)
	return out
}

// ParseLane resolves a lane name. An empty name falls back to LaneDefault.
func ParseLane(name string) (Lane, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return LaneDefault, nil
	}
	for _, l := range knownLanes {
		if string(l) == name {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLane, name)
}

// ParseLanes resolves a list of lane names, dropping duplicates
func ParseLanes(names []string) ([]Lane, error) {
	var errs []error
	seen := make(map[Lane]bool, len(names))
	lanes := make([]Lane, 0, len(names))
	for _, n := range names {
		l, err := ParseLane(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !seen[l] {
			seen[l] = true
			lanes = append(lanes, l)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return lanes, nil
}

// Index returns the lane's stable position, or -1 if unknown
func (l Lane) Index() int {
	for i, k := range knownLanes {
		if k == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is a known lane
func (l Lane) Valid() bool {
	return l.Index() >= 0
}

func (l Lane) String() string {
	return string(l)
}
