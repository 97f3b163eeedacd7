// Package identity resolves the caller's Discord identity after the OAuth code
// exchange and provides a bounded-retry wait for that identity to be ready.
package identity

import (
	"context"
	"errors"
	"time"
)

// Identity is the opaque user identity handed to the rest of the service.
// UserID is the Discord user snowflake.
type Identity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

var (
	// ErrNotReady means try again later (rate limited, provider still propagating).
	ErrNotReady = errors.New("identity not ready")
	// ErrRejected means the provider refused the credentials; retrying will not help.
	ErrRejected = errors.New("identity rejected")
)

type Result struct {
	State    State
	Identity *Identity
	Reason   error
	Attempts int
}

type Probe func(ctx context.Context) (*Identity, error)

type Options struct {
	Attempts int
	Interval time.Duration
	Timeout  time.Duration
}

func (o Options) normalized() Options {
	if o.Attempts <= 0 {
		o.Attempts = 1
	}
	if o.Interval < 0 {
		o.Interval = 0
	}
	return o
}

// Establish calls probe until it yields an identity, the provider rejects the
// request, attempts run out or the timeout elapses. Exhaustion while the
// provider only reported ErrNotReady is Pending; any other error is Failed.
func Establish(ctx context.Context, probe Probe, opts Options) Result {
	opts = opts.normalized()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		id, err := probe(ctx)
		switch {
		case err == nil && id != nil:
			return Result{State: Ready, Identity: id, Attempts: attempt}
		case err == nil:
			err = ErrNotReady
		case errors.Is(err, ErrRejected):
			return Result{State: Failed, Reason: err, Attempts: attempt}
		}
		lastErr = err

		if attempt == opts.Attempts {
			break
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return exhausted(lastErr, ctx.Err(), attempt)
		case <-timer.C:
		}
	}
	return exhausted(lastErr, nil, opts.Attempts)
}

func exhausted(lastErr, ctxErr error, attempts int) Result {
	if errors.Is(lastErr, ErrNotReady) {
		reason := lastErr
		if ctxErr != nil {
			reason = ctxErr
		}
		return Result{State: Pending, Reason: reason, Attempts: attempts}
	}
	return Result{State: Failed, Reason: lastErr, Attempts: attempts}
}
