// Package runner drives the capture, extract and submit control loop.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/desktopdye/desktopdye/internal/capture"
	"github.com/desktopdye/desktopdye/internal/colour"
	"github.com/desktopdye/desktopdye/internal/pipeline"
)

const (
	// DefaultMaxFailures is the number of consecutive failed cycles after
	// which the loop gives up.
	DefaultMaxFailures = 3

	// DefaultRetryDelay is the wait after a failed cycle.
	DefaultRetryDelay = 5 * time.Second
)

// Loop repeatedly captures the screen, runs the pipeline and submits
// changed results.
type Loop struct {
	capturer   capture.Capturer
	pipeline   *pipeline.Pipeline
	submitters []Submitter

	interval    time.Duration
	retryDelay  time.Duration
	maxFailures int

	observer func(*pipeline.Result)
	logger   hclog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	previous []colour.HSV
}

// Option configures a Loop.
type Option func(*Loop)

// WithSubmitters adds result submitters, called in order.
func WithSubmitters(submitters ...Submitter) Option {
	return func(l *Loop) {
		l.submitters = append(l.submitters, submitters...)
	}
}

// WithRetryDelay sets the wait after a failed cycle.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Loop) {
		l.retryDelay = d
	}
}

// WithMaxFailures sets the consecutive failure limit.
func WithMaxFailures(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxFailures = n
		}
	}
}

// WithObserver registers a callback invoked with every successful result,
// changed or not.
func WithObserver(fn func(*pipeline.Result)) Option {
	return func(l *Loop) {
		l.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger.Named("loop")
		}
	}
}

// NewLoop creates a loop that runs a cycle every interval.
func NewLoop(capturer capture.Capturer, p *pipeline.Pipeline, interval time.Duration, opts ...Option) *Loop {
	l := &Loop{
		capturer:    capturer,
		pipeline:    p,
		interval:    interval,
		retryDelay:  DefaultRetryDelay,
		maxFailures: DefaultMaxFailures,
		logger:      hclog.NewNullLogger(),
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Previous returns the colours of the last successful cycle.
func (l *Loop) Previous() []colour.HSV {
	return l.previous
}

// RunOnce performs a single cycle. The remembered colours only change when
// every step, submission included, succeeds.
func (l *Loop) RunOnce(ctx context.Context) (*pipeline.Result, error) {
	pixels, err := l.capturer.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrCaptureFailed, err)
	}

	result, err := l.pipeline.Run(pixels, l.previous)
	if err != nil {
		return nil, err
	}

	if result.Changed {
		if err := l.submit(ctx, result); err != nil {
			return nil, err
		}
		l.logger.Info("colours submitted", "payload", result.Payload)
	} else {
		l.logger.Debug("colours unchanged, skipping submission")
	}

	l.previous = result.Colors
	if l.observer != nil {
		l.observer(result)
	}
	return result, nil
}

func (l *Loop) submit(ctx context.Context, result *pipeline.Result) error {
	var errs []error
	for _, s := range l.submitters {
		if err := s.Submit(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("submission failed: %w", errors.Join(errs...))
	}
	return nil
}

// Run executes cycles until ctx is cancelled or too many consecutive cycles
// fail. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		start := l.now()
		_, err := l.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			failures++
			if failures >= l.maxFailures {
				l.logger.Error("too many failures, exiting", "failures", failures, "error", err)
				return err
			}

			l.logger.Warn("cycle failed", "error", err, "failures", failures, "retry_in", l.retryDelay)
			if err := l.sleep(ctx, l.retryDelay); err != nil {
				return nil
			}
			continue
		}

		failures = 0

		remaining := l.interval - l.now().Sub(start)
		if remaining <= 0 {
			continue
		}
		l.logger.Debug("waiting for next capture", "interval", l.interval, "remaining", remaining)
		if err := l.sleep(ctx, remaining); err != nil {
			return nil
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
