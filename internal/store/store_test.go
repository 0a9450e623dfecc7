package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state", "state.json")

	ps := NewPersistentStorage(file)
	if ps == nil {
		t.Fatal("NewPersistentStorage returned nil")
	}
	if err := ps.LoadData(); err != nil {
		t.Fatalf("loading a missing state file failed: %v", err)
	}

	if err := ps.Set(KeyLastRefreshTime, int64(1705284000)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := ps.Set(KeyNodeStatusData, []string{"gpu-node-001"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened := NewPersistentStorage(file)
	if err := reopened.LoadData(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	var last int64
	if !reopened.Get(KeyLastRefreshTime, &last) || last != 1705284000 {
		t.Errorf("last refresh = %d, want 1705284000", last)
	}
	var nodes []string
	if !reopened.Get(KeyNodeStatusData, &nodes) || len(nodes) != 1 {
		t.Errorf("nodes = %v, want one entry", nodes)
	}
}

func TestGetMissingAndUndecodable(t *testing.T) {
	ps := NewPersistentStorage(filepath.Join(t.TempDir(), "state.json"))
	ps.LoadData()

	var v int
	if ps.Get("missing", &v) {
		t.Error("Get on missing key reported true")
	}

	ps.Set("text", "hello")
	if ps.Get("text", &v) {
		t.Error("Get with mismatched type reported true")
	}
}

func TestCorruptFileResets(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(file, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	ps := NewPersistentStorage(file)
	if err := ps.LoadData(); err != nil {
		t.Fatalf("corrupt state file should reset, got error: %v", err)
	}

	var v int
	if ps.Get(KeyRefreshAttempts, &v) {
		t.Error("corrupt file left stale data behind")
	}
}

func TestRawAccess(t *testing.T) {
	ps := NewPersistentStorage(filepath.Join(t.TempDir(), "state.json"))
	ps.LoadData()

	raw := []byte(`[{"jobId":"job-1","status":"running"}]`)
	if err := ps.SetRaw(KeyJobsData, raw); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if got := ps.GetRaw(KeyJobsData); string(got) != string(raw) {
		t.Errorf("GetRaw = %s, want %s", got, raw)
	}

	var jobs []map[string]string
	if !ps.Get(KeyJobsData, &jobs) || jobs[0]["status"] != "running" {
		t.Errorf("typed read of raw value = %v", jobs)
	}
}
