package services

import (
	"context"
	"time"

	"github.com/chorsey/apiserver/internal/caption"
	"github.com/hashicorp/go-hclog"
)

// Latency delays a store operation. It returns ctx.Err() if the context is
// done before the delay elapses.
type Latency func(ctx context.Context) error

// NoLatency completes immediately.
func NoLatency(context.Context) error {
	return nil
}

// FixedLatency waits d before every operation. Non-positive durations
// return NoLatency.
func FixedLatency(d time.Duration) Latency {
	if d <= 0 {
		return NoLatency
	}
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

type options struct {
	latency         Latency
	logger          hclog.Logger
	verifyPasswords bool
	notifier        Notifier
	photos          PhotoStore
	captioner       caption.Captioner
	now             func() time.Time
}

// Option configures a service.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		latency:  NoLatency,
		logger:   hclog.NewNullLogger(),
		notifier: Notifiers(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLatency sets the artificial delay applied to every store operation.
func WithLatency(latency Latency) Option {
	return func(o *options) {
		if latency != nil {
			o.latency = latency
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPasswordVerification enables bcrypt password checks on login.
func WithPasswordVerification(enabled bool) Option {
	return func(o *options) {
		o.verifyPasswords = enabled
	}
}

// WithNotifier sets the receiver of task events.
func WithNotifier(notifier Notifier) Option {
	return func(o *options) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithPhotoStore enables storing the photos tasks are drafted from.
func WithPhotoStore(photos PhotoStore) Option {
	return func(o *options) {
		o.photos = photos
	}
}

// WithCaptioner enables drafting tasks from photos.
func WithCaptioner(captioner caption.Captioner) Option {
	return func(o *options) {
		o.captioner = captioner
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
