package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunDispatchesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"connected\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"job_status_change\",\"job_id\":\"manual-1756721527\",\"status\":\"running\",\"node_name\":\"gpu-node-001\",\"timestamp\":1756721527.5}\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"type\":\"heartbeat\"}\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []Event
	client := NewClient(server.URL)
	err := client.Run(ctx, func(event Event) {
		events = append(events, event)
		// Three decodable events expected; the malformed line is dropped.
		if len(events) >= 3 {
			cancel()
		}
	})
	if err != context.Canceled && err != ErrStreamLost {
		t.Fatalf("Run = %v", err)
	}

	if len(events) < 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Type != EventConnected {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Type != EventJobStatus || events[1].JobId != "manual-1756721527" || events[1].Status != "running" {
		t.Errorf("status event = %+v", events[1])
	}
	if events[2].Type != EventHeartbeat {
		t.Errorf("third event = %+v", events[2])
	}
}

func TestDecodeJobIdSpellings(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		jobId   string
	}{
		{"snake case", `{"type":"job_status_change","job_id":"manual-1756721527","status":"running"}`, "manual-1756721527"},
		{"camel case", `{"type":"job_status_change","jobId":"job-1","status":"running"}`, "job-1"},
		{"both, snake case wins", `{"type":"job_status_change","job_id":"manual-2","jobId":"stale","status":"running"}`, "manual-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := decode(tt.payload)
			if !ok {
				t.Fatal("decode rejected payload")
			}
			if event.JobId != tt.jobId {
				t.Errorf("JobId = %q, want %q", event.JobId, tt.jobId)
			}
		})
	}
}

func TestRunReconnectsOnce(t *testing.T) {
	var connects int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&connects, 1)
		w.Header().Set("Content-Type", "text/event-stream")
		// Accept the stream but deliver nothing before closing it, so
		// the retry budget is never refunded.
		fmt.Fprint(w, ": ping\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	start := time.Now()
	err := client.Run(context.Background(), func(Event) {})
	if err != ErrStreamLost {
		t.Fatalf("Run = %v, want ErrStreamLost", err)
	}
	if got := atomic.LoadInt32(&connects); got != 2 {
		t.Errorf("connected %d times, want 2 (initial + one retry)", got)
	}
	if elapsed := time.Since(start); elapsed < reconnectDelay {
		t.Errorf("gave up after %v, want at least the %v reconnect delay", elapsed, reconnectDelay)
	}
	if client.State() != Closed {
		t.Errorf("state = %v, want Closed", client.State())
	}
}
