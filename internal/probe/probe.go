package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrAbsent is returned by a probe function when the thing it looks for is
// not there. TryGet turns it into None.
var ErrAbsent = errors.New("absent")

// ErrRequired is matched by every Require* failure
var ErrRequired = errors.New("required element missing")

// Option is a value that may be absent
type Option[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None is the absent value
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether a value is present
func (o Option[T]) IsSome() bool {
	return o.ok
}

// OrElse returns the value, or def when absent
func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

func (o Option[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

type result[T any] struct {
	v   T
	err error
}

// TryGet runs fn with a deadline of timeout.
// Absence (timeout, ErrAbsent, a Playwright TimeoutError) is None with a nil
// error. Any other failure is returned, as is cancellation of ctx itself.
func TryGet[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (Option[T], error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(probeCtx)
		done <- result[T]{v, err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return Some(r.v), nil
		}
		if ctx.Err() != nil {
			return None[T](), ctx.Err()
		}
		if isAbsence(r.err) {
			return None[T](), nil
		}
		return None[T](), r.err
	case <-probeCtx.Done():
		if ctx.Err() != nil {
			return None[T](), ctx.Err()
		}
		return None[T](), nil
	}
}

func isAbsence(err error) bool {
	return errors.Is(err, ErrAbsent) ||
		errors.Is(err, playwright.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Element is the part of playwright.Locator the probes use
type Element interface {
	WaitFor(options ...playwright.LocatorWaitForOptions) error
	TextContent(options ...playwright.LocatorTextContentOptions) (string, error)
}

var _ Element = (playwright.Locator)(nil)

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// Visible reports whether el becomes visible within timeout
func Visible(ctx context.Context, el Element, timeout time.Duration) (bool, error) {
	opt, err := TryGet(ctx, timeout, func(context.Context) (struct{}, error) {
		return struct{}{}, el.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: millis(timeout),
		})
	})
	return opt.IsSome(), err
}

// Text returns el's text once it is visible, or None if it never appears
func Text(ctx context.Context, el Element, timeout time.Duration) (Option[string], error) {
	return TryGet(ctx, timeout, func(context.Context) (string, error) {
		if err := el.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: millis(timeout),
		}); err != nil {
			return "", err
		}
		return el.TextContent(playwright.LocatorTextContentOptions{Timeout: millis(timeout)})
	})
}

// RequireVisible fails with ErrRequired if el does not become visible
func RequireVisible(ctx context.Context, el Element, what string, timeout time.Duration) error {
	ok, err := Visible(ctx, el, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s not visible after %s", ErrRequired, what, timeout)
	}
	return nil
}

// RequireText is Text for elements the test cannot proceed without
func RequireText(ctx context.Context, el Element, what string, timeout time.Duration) (string, error) {
	opt, err := Text(ctx, el, timeout)
	if err != nil {
		return "", err
	}
	text, ok := opt.Get()
	if !ok {
		return "", fmt.Errorf("%w: %s not visible after %s", ErrRequired, what, timeout)
	}
	return text, nil
}
