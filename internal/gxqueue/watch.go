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

package gxqueue

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/refresh"
	"GhxFrontEnd/internal/store"
	"GhxFrontEnd/internal/stream"
	"GhxFrontEnd/internal/util"
)

// pollFallbackInterval is the cadence used while the event stream is
// down for good.
const pollFallbackInterval = 120 * time.Second

func isTerminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "stopped", "Completed", "Failed", "Stopped":
		return true
	}
	return false
}

// Watch follows the event stream and keeps the printed job list
// current. Status changes patch the cached list in place immediately;
// terminal states additionally schedule a debounced full refetch. When
// the stream is lost after its one reconnect, watching degrades to slow
// polling.
func Watch() util.GhxCmdError {
	// One storage instance for the initial fetch, the patcher and the
	// fallback poller; a second instance would patch a stale snapshot.
	storage := openStorage()
	if storage == nil {
		return util.ErrorExecuteFailed
	}

	client := api.NewClient(config)

	if code := queryOnce(client, storage); code != util.ErrorSuccess {
		return code
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	debouncer := refresh.NewDebouncer(refresh.DebounceDelay)
	defer debouncer.Stop()
	refetch := func() {
		if _, err := fetchJobs(client, storage); err != nil {
			log.Errorf("Refetch after status change failed: %v", err)
			return
		}
		var jobs []api.Job
		storage.Get(store.KeyJobsData, &jobs)
		printJobs(jobs)
	}

	sse := stream.NewClient(client.StreamUrl())
	err := sse.Run(ctx, func(event stream.Event) {
		switch event.Type {
		case stream.EventConnected:
			log.Debugf("Event stream connected")
		case stream.EventHeartbeat:
		case stream.EventJobStatus:
			patchCachedJob(storage, event)
			fmt.Printf("Job %s is now %s.\n", event.JobId, event.Status)
			if isTerminalStatus(event.Status) {
				debouncer.Trigger(refetch)
			}
		case stream.EventResultsUpdated:
			debouncer.Trigger(refetch)
		default:
			log.Debugf("Ignoring stream event type %q", event.Type)
		}
	})
	if err == context.Canceled {
		return util.ErrorSuccess
	}
	if err != stream.ErrStreamLost {
		log.Errorf("Event stream failed: %v", err)
	}

	fmt.Printf("Event stream lost, polling every %s.\n", pollFallbackInterval)
	for {
		select {
		case <-ctx.Done():
			return util.ErrorSuccess
		case <-time.After(pollFallbackInterval):
			if code := queryOnce(client, storage); code != util.ErrorSuccess {
				return code
			}
		}
	}
}

// patchCachedJob updates one job's status inside the cached job-list
// JSON without a round trip, so an offline reader of the cache sees the
// streamed state.
func patchCachedJob(storage *store.PersistentStorage, event stream.Event) {
	cached := storage.GetRaw(store.KeyJobsData)
	if cached == nil {
		return
	}

	index := -1
	for i, job := range gjson.ParseBytes(cached).Array() {
		if job.Get("jobId").String() == event.JobId {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}

	prefix := fmt.Sprintf("%d.", index)
	patched, err := sjson.SetBytes(cached, prefix+"status", event.Status)
	if err != nil {
		log.Debugf("Failed to patch cached job %s: %v", event.JobId, err)
		return
	}
	if status := gjson.GetBytes(event.Raw, "podStatus"); status.Exists() {
		patched, _ = sjson.SetBytes(patched, prefix+"podStatus", status.String())
	}
	patched, _ = sjson.SetBytes(patched, prefix+"lastStatusUpdate",
		time.Now().Format("2006-01-02 15:04:05"))

	if err := storage.SetRaw(store.KeyJobsData, patched); err != nil {
		log.Warnf("Failed to persist patched job list: %v", err)
	}
}
