package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all requests and tracks failures.
	Closed State = iota
	// Open rejects requests until the cool-off period expires.
	Open
	// HalfOpen lets one probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Options configures a Breaker.
type Options struct {
	Target       string
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
	Logger       zerolog.Logger
	Metrics      *Metrics
	Now          func() time.Time
}

// Breaker implements a failure-ratio circuit breaker.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
	opts      Options
}

// NewBreaker constructs a breaker that opens when the failure ratio reaches
// FailureRatio once MinRequests outcomes have been reported.
func NewBreaker(opts Options) *Breaker {
	if opts.MinRequests <= 0 {
		opts.MinRequests = 1
	}
	if opts.FailureRatio <= 0 {
		opts.FailureRatio = 0.5
	}
	if opts.FailureRatio > 1 {
		opts.FailureRatio = 1
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Target = strings.TrimSpace(opts.Target)
	if opts.Target == "" {
		opts.Target = "default"
	}
	b := &Breaker{state: Closed, opts: opts}
	b.recordStateLocked()
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a request is permitted. An open breaker admits a
// single probe once the cool-off period has passed.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.opts.Now().Sub(b.openedAt) < b.opts.OpenFor {
			return false
		}
		b.changeStateLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records the outcome of a permitted request.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.changeStateLocked(ctx, Closed)
		} else {
			b.changeStateLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.opts.MinRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.opts.FailureRatio {
		b.changeStateLocked(ctx, Open)
	} else if total > b.opts.MinRequests*2 {
		// decay so old successes do not mask a new outage
		b.successes = (b.successes + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

func (b *Breaker) changeStateLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	switch next {
	case Open:
		b.openedAt = b.opts.Now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.failures = 0
	b.successes = 0
	b.recordStateLocked()

	if m := b.opts.Metrics; m != nil {
		m.Transitions.WithLabelValues(b.opts.Target, prev.String(), next.String()).Inc()
		if next == Open {
			m.Opened.WithLabelValues(b.opts.Target).Inc()
		}
	}
	evt := b.opts.Logger.Warn()
	if next == Closed {
		evt = b.opts.Logger.Info()
	}
	evt = evt.Str("target", b.opts.Target).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) recordStateLocked() {
	if m := b.opts.Metrics; m != nil {
		m.State.WithLabelValues(b.opts.Target).Set(float64(b.state))
	}
}
