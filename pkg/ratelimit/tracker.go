package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	ascRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asc_rate_limit_remaining",
		Help: "Requests remaining in the current App Store Connect hourly window",
	})

	ascRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asc_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to critical remaining quota",
	})

	ascRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asc_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to low remaining quota",
	})
)

// DefaultThrottleDelay is how long a request waits when the quota is low.
const DefaultThrottleDelay = 1 * time.Second

// Tracker monitors the App Store Connect quota and gates requests.
type Tracker struct {
	store         Store
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a new rate limit tracker. A nil store keeps state in memory.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:         store,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the delay applied in the warning range.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the stored state, or a default healthy state when none is
// stored or the stored one is older than a quota window.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}
	if state == nil || state.IsStale(Window) {
		t.logger.Debug().Msg("No current rate limit state, assuming full quota")
		return DefaultState(time.Now()), nil
	}
	return state, nil
}

// UpdateFromHeaders parses the X-Rate-Limit header and stores the new state.
// Responses without the header leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	value := headers.Get(HeaderName)
	if value == "" {
		return nil
	}

	limit, remaining, err := ParseHeader(value)
	if err != nil {
		return err
	}

	now := time.Now()
	state := &State{
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    now.Add(Window),
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	ascRateLimitRemaining.Set(float64(remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("limit", limit).
			Int("remaining", remaining).
			Msg("App Store Connect quota CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("limit", limit).
			Int("remaining", remaining).
			Msg("App Store Connect quota WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("limit", limit).
			Int("remaining", remaining).
			Bool("is_healthy", state.IsHealthy).
			Msg("Rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may proceed. In the critical
// range it returns false; in the warning range it waits for the throttle delay
// (or until ctx is done) and then allows the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("App Store Connect quota critical - blocking request")

		ascRateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("App Store Connect quota low - throttling request")

		ascRateLimitThrottlesTotal.Inc()

		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	return true, nil
}
