package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/moodscope/internal/adapter/metrics"
)

// CircuitBreakerHook fails Redis calls fast while Redis is unhealthy. Redis only
// fronts Postgres here, so an open breaker turns every cache read into a miss
// instead of a slow timeout.
type CircuitBreakerHook struct {
	cb circuitbreaker.CircuitBreaker[any]
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// NewCircuitBreakerHook opens after 60% of at least 5 calls fail within 10s,
// probes again after 30s and closes on the first successful probe.
func NewCircuitBreakerHook(m *metrics.RedisMetrics) *CircuitBreakerHook {
	return newCircuitBreakerHook(m, func(onChange func(circuitbreaker.StateChangedEvent)) circuitbreaker.CircuitBreaker[any] {
		return circuitbreaker.NewBuilder[any]().
			WithFailureRateThreshold(0.6, 5, 10*time.Second).
			WithDelay(30 * time.Second).
			WithSuccessThreshold(1).
			OnStateChanged(onChange).
			Build()
	})
}

type breakerFactory func(onChange func(circuitbreaker.StateChangedEvent)) circuitbreaker.CircuitBreaker[any]

func newCircuitBreakerHook(m *metrics.RedisMetrics, build breakerFactory) *CircuitBreakerHook {
	cb := build(func(e circuitbreaker.StateChangedEvent) {
		slog.Warn("Redis circuit breaker state changed", "from", e.OldState.String(), "to", e.NewState.String())
		m.BreakerChanges.WithLabelValues(e.NewState.String()).Inc()
		m.BreakerState.Set(stateToFloat(e.NewState))
	})
	return &CircuitBreakerHook{cb: cb}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// State reports the current breaker state.
func (h *CircuitBreakerHook) State() circuitbreaker.State {
	return h.cb.State()
}

func (h *CircuitBreakerHook) record(err error) {
	if err != nil && !errors.Is(err, goredis.Nil) {
		h.cb.RecordError(err)
		return
	}
	h.cb.RecordSuccess()
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !h.cb.TryAcquirePermit() {
			return nil, fmt.Errorf("redis dial rejected: %w", circuitbreaker.ErrOpen)
		}
		conn, err := next(ctx, network, addr)
		h.record(err)
		return conn, err
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			err := fmt.Errorf("redis %s rejected: %w", cmd.Name(), circuitbreaker.ErrOpen)
			cmd.SetErr(err)
			return err
		}
		err := next(ctx, cmd)
		h.record(err)
		return err
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			return fmt.Errorf("redis pipeline rejected: %w", circuitbreaker.ErrOpen)
		}
		err := next(ctx, cmds)
		h.record(err)
		return err
	}
}
