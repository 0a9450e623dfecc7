/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package refresh gates data fetches behind per-source cooldowns so a
// user hammering the commands cannot hammer the backend. The gate state
// is persisted, so cooldowns survive across command invocations.
package refresh

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// SuccessCooldown blocks re-fetching a source after a successful fetch.
	SuccessCooldown = 20 * time.Second
	// FailureCooldown blocks retries after a failed fetch, longer than the
	// success window so a struggling backend gets room to recover.
	FailureCooldown = 60 * time.Second
	// DefaultRetryAfter applies when the backend rate-limits a request
	// without saying for how long.
	DefaultRetryAfter = 20 * time.Second
)

// Suggested polling intervals by cluster activity.
const (
	IdleInterval     = 5 * time.Minute
	ActiveInterval   = 1 * time.Minute
	CriticalInterval = 30 * time.Second
)

// RateLimitedError reports that a source is still inside its cooldown
// window. It is a local decision, not a backend failure.
type RateLimitedError struct {
	Source           string
	RemainingSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("refresh of %s rate limited, %ds remaining", e.Source, e.RemainingSeconds)
}

// RetryAfterHinter is implemented by fetch errors carrying the backend's
// own retry window, typically a 429 answer.
type RetryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// KeyValue is the persisted state the scheduler needs. The store package
// satisfies it.
type KeyValue interface {
	Get(key string, v any) bool
	Set(key string, v any) error
}

// Scheduler serializes and rate-limits fetches per named source.
type Scheduler struct {
	mu       sync.Mutex
	inflight map[string]bool
	store    KeyValue
	now      func() time.Time
}

func NewScheduler(store KeyValue) *Scheduler {
	return &Scheduler{
		inflight: make(map[string]bool),
		store:    store,
		now:      time.Now,
	}
}

// State keys per source. The "gpu" source reproduces the names older
// frontends persisted, other sources get their own namespaces.
func lastKey(source string) string     { return source + "-last-refresh-time" }
func nextKey(source string) string     { return source + "-next-refresh-time" }
func attemptsKey(source string) string { return source + "-refresh-attempts" }

// Remaining reports how many whole seconds of cooldown are left for the
// source, zero when a refresh is allowed now.
func (s *Scheduler) Remaining(source string) int {
	var next int64
	if !s.store.Get(nextKey(source), &next) {
		return 0
	}
	remaining := time.Unix(next, 0).Sub(s.now())
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// Do runs fetch unless the source is cooling down or already fetching.
// A forced refresh skips the cooldown gate but still respects backend
// rate limiting. On success the cooldown is armed for the given
// duration; on failure the longer failure window is armed instead,
// except a backend rate limit, which arms the window the backend asked
// for.
func (s *Scheduler) Do(source string, force bool, cooldown time.Duration, fetch func() error) error {
	s.mu.Lock()
	if s.inflight[source] {
		s.mu.Unlock()
		return &RateLimitedError{Source: source, RemainingSeconds: s.Remaining(source)}
	}
	if !force {
		if remaining := s.Remaining(source); remaining > 0 {
			s.mu.Unlock()
			log.Debugf("Refresh of %s blocked for %ds", source, remaining)
			return &RateLimitedError{Source: source, RemainingSeconds: remaining}
		}
	}
	s.inflight[source] = true
	s.mu.Unlock()

	err := fetch()

	s.mu.Lock()
	delete(s.inflight, source)
	s.mu.Unlock()

	now := s.now()
	var attempts int
	s.store.Get(attemptsKey(source), &attempts)

	if err != nil {
		// A backend that named its own window gets exactly that window
		// armed, once; callers must not Hold again.
		var hint RetryAfterHinter
		if errors.As(err, &hint) {
			s.arm(source, now, holdWindow(hint.RetryAfterHint()), attempts+1)
			return err
		}
		s.arm(source, now, FailureCooldown, attempts+1)
		return err
	}

	s.arm(source, now, cooldown, 0)
	return nil
}

// Hold arms the cooldown without fetching, for rate limits observed
// outside a Do call.
func (s *Scheduler) Hold(source string, retryAfter time.Duration) {
	var attempts int
	s.store.Get(attemptsKey(source), &attempts)
	s.arm(source, s.now(), holdWindow(retryAfter), attempts+1)
}

func holdWindow(retryAfter time.Duration) time.Duration {
	if retryAfter <= 0 {
		return DefaultRetryAfter
	}
	return retryAfter
}

func (s *Scheduler) arm(source string, now time.Time, cooldown time.Duration, attempts int) {
	if err := s.store.Set(lastKey(source), now.Unix()); err != nil {
		log.Warnf("Failed to persist refresh state for %s: %v", source, err)
		return
	}
	s.store.Set(nextKey(source), now.Add(cooldown).Unix())
	s.store.Set(attemptsKey(source), attempts)
}

// SuggestedInterval picks a polling cadence from the observed job
// statuses: fast while jobs are starting, moderate while any run, slow
// when the cluster is quiet.
func SuggestedInterval(statuses []string) time.Duration {
	interval := IdleInterval
	for _, status := range statuses {
		switch status {
		case "pending", "creating", "Pending", "Creating":
			return CriticalInterval
		case "running", "Running":
			interval = ActiveInterval
		}
	}
	return interval
}
