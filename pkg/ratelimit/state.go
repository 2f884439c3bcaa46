// Package ratelimit tracks the App Store Connect hourly request quota and gates
// requests before it is exhausted. The quota is reported on every response in
// the X-Rate-Limit header:
//
//	X-Rate-Limit: user-hour-lim:3600;user-hour-rem:3599;
//
// State is kept in a Store so that several processes sharing one API key can
// share a view of the remaining quota (see RedisStore).
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HeaderName is the response header carrying the quota.
const HeaderName = "X-Rate-Limit"

// Window is the length of the quota window.
const Window = time.Hour

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks requests when remaining quota falls below this value.
	RemainingThresholdCritical = 10

	// RemainingThresholdWarning throttles requests when remaining quota falls below this value.
	RemainingThresholdWarning = 100

	// RemainingThresholdHealthy marks the state healthy at or above this value.
	RemainingThresholdHealthy = 500
)

// State is the last observed App Store Connect quota.
type State struct {
	// Limit is the hourly request allowance (user-hour-lim).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window (user-hour-rem).
	Remaining int `json:"remaining"`

	// ResetAt is when the observed window is assumed to have rolled over.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was observed.
	LastUpdate time.Time `json:"last_update"`

	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the first response reports a quota.
func DefaultState(now time.Time) *State {
	s := &State{
		Limit:      3600,
		Remaining:  3600,
		ResetAt:    now.Add(Window),
		LastUpdate: now,
	}
	s.UpdateHealth()
	return s
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window rolls over, or 0 if it already has.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}

// ParseHeader parses an X-Rate-Limit value into its hourly limit and remaining count.
// Unknown keys are ignored; both user-hour-lim and user-hour-rem are required.
func ParseHeader(value string) (limit, remaining int, err error) {
	var haveLimit, haveRemaining bool

	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, raw, ok := strings.Cut(part, ":")
		if !ok {
			return 0, 0, fmt.Errorf("malformed %s entry %q", HeaderName, part)
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(raw))

		switch strings.TrimSpace(key) {
		case "user-hour-lim":
			if convErr != nil {
				return 0, 0, fmt.Errorf("parse user-hour-lim: %w", convErr)
			}
			limit, haveLimit = n, true
		case "user-hour-rem":
			if convErr != nil {
				return 0, 0, fmt.Errorf("parse user-hour-rem: %w", convErr)
			}
			remaining, haveRemaining = n, true
		}
	}

	if !haveLimit || !haveRemaining {
		return 0, 0, fmt.Errorf("%s header %q lacks user-hour-lim or user-hour-rem", HeaderName, value)
	}
	return limit, remaining, nil
}
