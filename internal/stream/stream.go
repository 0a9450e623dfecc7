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

// Package stream consumes the backend's server-sent job status events.
// The client retries a dropped stream exactly once; after a second drop
// it gives up and lets the caller fall back to polling.
package stream

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type State int

const (
	Connecting State = iota
	Open
	Reconnecting
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Reconnecting:
		return "reconnecting"
	default:
		return "closed"
	}
}

// Event types emitted by the backend.
const (
	EventConnected      = "connected"
	EventHeartbeat      = "heartbeat"
	EventJobStatus      = "job_status_change"
	EventResultsUpdated = "diagnostic_results_updated"
)

// Event is one decoded SSE payload. Raw keeps the full JSON for callers
// that patch cached state with fields not modeled here.
type Event struct {
	Type    string
	JobId   string
	Status  string
	Message string
	Raw     []byte
}

// ErrStreamLost reports that the stream dropped after its one allowed
// reconnect, the signal to switch to polling.
var ErrStreamLost = errors.New("event stream lost")

const reconnectDelay = 3 * time.Second

type Client struct {
	url  string
	http *http.Client

	mu    sync.Mutex
	state State
}

func NewClient(url string) *Client {
	// No client-level timeout: the stream is long-lived and quiet
	// periods between heartbeats must not kill it.
	return &Client{url: url, http: &http.Client{}, state: Closed}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run connects and dispatches events to handler until the context ends
// or the stream is lost. A stream that has delivered at least one event
// refunds the retry budget, so a long-lived stream may recover from one
// drop each time it happens.
func (c *Client) Run(ctx context.Context, handler func(Event)) error {
	defer c.setState(Closed)

	attempts := 0
	for {
		if attempts == 0 {
			c.setState(Connecting)
		} else {
			c.setState(Reconnecting)
		}

		err := c.consume(ctx, handler, func() { attempts = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debugf("Event stream dropped: %v", err)

		attempts++
		if attempts > 1 {
			return ErrStreamLost
		}

		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) consume(ctx context.Context, handler func(Event), onHealthy func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("event stream endpoint returned " + resp.Status)
	}

	c.setState(Open)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if event, ok := decode(payload); ok {
			onHealthy()
			handler(event)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("event stream closed by server")
}

func decode(payload string) (Event, bool) {
	if !gjson.Valid(payload) {
		log.Debugf("Discarding undecodable stream payload: %s", payload)
		return Event{}, false
	}
	parsed := gjson.Parse(payload)
	// The backend emits snake_case fields; older builds used camelCase.
	jobId := parsed.Get("job_id")
	if !jobId.Exists() {
		jobId = parsed.Get("jobId")
	}
	event := Event{
		Type:    parsed.Get("type").String(),
		JobId:   jobId.String(),
		Status:  parsed.Get("status").String(),
		Message: parsed.Get("message").String(),
		Raw:     []byte(payload),
	}
	if event.Type == "" {
		return Event{}, false
	}
	return event, true
}
