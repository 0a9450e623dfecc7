package refresh

import (
	"errors"
	"testing"
	"time"
)

type memoryStore struct {
	data map[string]any
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]any)}
}

func (m *memoryStore) Get(key string, v any) bool {
	value, ok := m.data[key]
	if !ok {
		return false
	}
	switch target := v.(type) {
	case *int64:
		*target = value.(int64)
	case *int:
		*target = value.(int)
	default:
		return false
	}
	return true
}

func (m *memoryStore) Set(key string, v any) error {
	m.data[key] = v
	return nil
}

func testScheduler(start time.Time) (*Scheduler, *memoryStore, *time.Time) {
	now := start
	store := newMemoryStore()
	s := NewScheduler(store)
	s.now = func() time.Time { return now }
	return s, store, &now
}

func TestDoArmsAndBlocks(t *testing.T) {
	s, _, now := testScheduler(time.Unix(1000000, 0))

	calls := 0
	fetch := func() error { calls++; return nil }

	if err := s.Do("gpu", false, SuccessCooldown, fetch); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}

	err := s.Do("gpu", false, SuccessCooldown, fetch)
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("second refresh = %v, want RateLimitedError", err)
	}
	if limited.RemainingSeconds <= 0 || limited.RemainingSeconds > 20 {
		t.Errorf("RemainingSeconds = %d, want (0, 20]", limited.RemainingSeconds)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times during cooldown, want 1", calls)
	}

	// Forced refresh skips the gate.
	if err := s.Do("gpu", true, SuccessCooldown, fetch); err != nil {
		t.Fatalf("forced refresh failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("fetch called %d times after force, want 2", calls)
	}

	*now = now.Add(SuccessCooldown + time.Second)
	if err := s.Do("gpu", false, SuccessCooldown, fetch); err != nil {
		t.Fatalf("refresh after cooldown failed: %v", err)
	}
}

func TestDoFailureArmsLongerCooldown(t *testing.T) {
	s, store, now := testScheduler(time.Unix(1000000, 0))

	fetchErr := errors.New("backend down")
	if err := s.Do("results", false, SuccessCooldown, func() error { return fetchErr }); err != fetchErr {
		t.Fatalf("Do = %v, want fetch error passed through", err)
	}

	remaining := s.Remaining("results")
	if remaining != 60 {
		t.Errorf("Remaining after failure = %d, want 60", remaining)
	}

	var attempts int
	if !store.Get("results-refresh-attempts", &attempts) || attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}

	// Success resets the attempt counter.
	*now = now.Add(FailureCooldown + time.Second)
	if err := s.Do("results", false, SuccessCooldown, func() error { return nil }); err != nil {
		t.Fatalf("recovery refresh failed: %v", err)
	}
	store.Get("results-refresh-attempts", &attempts)
	if attempts != 0 {
		t.Errorf("attempts after success = %d, want 0", attempts)
	}
}

type retryHintErr struct {
	after time.Duration
}

func (e *retryHintErr) Error() string                 { return "too many requests" }
func (e *retryHintErr) RetryAfterHint() time.Duration { return e.after }

func TestDoArmsServerWindowOnce(t *testing.T) {
	s, store, _ := testScheduler(time.Unix(1000000, 0))

	hintErr := &retryHintErr{after: 45 * time.Second}
	if err := s.Do("gpu", true, SuccessCooldown, func() error { return hintErr }); err != hintErr {
		t.Fatalf("Do = %v, want fetch error passed through", err)
	}

	if got := s.Remaining("gpu"); got != 45 {
		t.Errorf("Remaining = %d, want the server's 45", got)
	}
	// The attempt counter must move by one per rejected fetch, not two.
	var attempts int
	if !store.Get("gpu-refresh-attempts", &attempts) || attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestHoldUsesServerWindow(t *testing.T) {
	s, _, _ := testScheduler(time.Unix(1000000, 0))

	s.Hold("gpu", 45*time.Second)
	if got := s.Remaining("gpu"); got != 45 {
		t.Errorf("Remaining after hold = %d, want 45", got)
	}

	s.Hold("gpu", 0)
	if got := s.Remaining("gpu"); got != int(DefaultRetryAfter/time.Second) {
		t.Errorf("Remaining after default hold = %d, want %d", got, int(DefaultRetryAfter/time.Second))
	}
}

func TestIndependentSources(t *testing.T) {
	s, _, _ := testScheduler(time.Unix(1000000, 0))

	if err := s.Do("gpu", false, SuccessCooldown, func() error { return nil }); err != nil {
		t.Fatalf("gpu refresh failed: %v", err)
	}
	// A cooling gpu source must not block the results source.
	if err := s.Do("results", false, SuccessCooldown, func() error { return nil }); err != nil {
		t.Fatalf("results refresh blocked by gpu cooldown: %v", err)
	}
}

func TestSuggestedInterval(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     time.Duration
	}{
		{"idle cluster", []string{"completed", "failed"}, IdleInterval},
		{"empty queue", nil, IdleInterval},
		{"running job", []string{"completed", "running"}, ActiveInterval},
		{"pending wins over running", []string{"running", "pending"}, CriticalInterval},
		{"creating job", []string{"creating"}, CriticalInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestedInterval(tt.statuses); got != tt.want {
				t.Errorf("SuggestedInterval(%v) = %v, want %v", tt.statuses, got, tt.want)
			}
		})
	}
}
