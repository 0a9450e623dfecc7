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

// Package store is the durable key-value state shared by the commands:
// cached datasets plus refresh-scheduler bookkeeping. It is advisory
// state only, the backend remains the source of truth. Concurrent
// writers are last-writer-wins; the file lock only keeps single writes
// atomic.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

// Keys mirror the dashboard-era local storage names so state written by
// older frontends stays readable.
const (
	KeyNodeStatusData  = "gpu-node-status-data"
	KeyJobsData        = "diagnostic-jobs-data"
	KeyResultsData     = "diagnostic-results-data"
	KeyAutoRefresh     = "gpu-auto-refresh-enabled"
	KeyHasInitialized  = "gpu-has-initialized"
	KeyLastRefreshTime = "gpu-last-refresh-time"
	KeyNextRefreshTime = "gpu-next-refresh-time"
	KeyRefreshAttempts = "gpu-refresh-attempts"
)

type PersistentStorage struct {
	flock *flock.Flock
	data  map[string]json.RawMessage
	file  string
}

func NewPersistentStorage(file string) *PersistentStorage {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Errorf("Failed to create state directory %s: %v", dir, err)
		return nil
	}

	lock := flock.New(file + ".lock") // file lock
	return &PersistentStorage{
		flock: lock,
		data:  make(map[string]json.RawMessage),
		file:  file,
	}
}

func (ps *PersistentStorage) LoadData() error {
	err := ps.flock.RLock()
	if err != nil {
		log.Errorf("Failed to lock state file: %s", err)
		return err
	}
	defer ps.flock.Unlock()

	content, err := os.ReadFile(ps.file)
	if err != nil {
		if os.IsNotExist(err) {
			ps.data = make(map[string]json.RawMessage)
			return nil
		}
		return err
	}

	data := make(map[string]json.RawMessage)
	if err = json.Unmarshal(content, &data); err != nil {
		// A corrupt state file is advisory data only; start over.
		log.Warnf("State file %s is corrupt, resetting: %v", ps.file, err)
		ps.data = make(map[string]json.RawMessage)
		return nil
	}
	ps.data = data
	return nil
}

func (ps *PersistentStorage) SaveData() error {
	err := ps.flock.Lock()
	if err != nil {
		return err
	}
	defer ps.flock.Unlock()

	content, err := json.Marshal(ps.data)
	if err != nil {
		return err
	}
	return os.WriteFile(ps.file, content, 0644)
}

// Get decodes the value stored under key into v, reporting whether the
// key was present and decodable.
func (ps *PersistentStorage) Get(key string, v any) bool {
	raw, ok := ps.data[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Debugf("Discarding undecodable state entry %s: %v", key, err)
		return false
	}
	return true
}

// Set encodes v under key and persists the whole store.
func (ps *PersistentStorage) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ps.data[key] = raw
	return ps.SaveData()
}

// GetRaw returns the stored JSON for key verbatim, for callers that
// patch it in place.
func (ps *PersistentStorage) GetRaw(key string) []byte {
	return ps.data[key]
}

// SetRaw stores pre-encoded JSON under key and persists the store.
func (ps *PersistentStorage) SetRaw(key string, raw []byte) error {
	ps.data[key] = raw
	return ps.SaveData()
}
