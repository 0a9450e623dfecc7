package gxqueue

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/store"
	"GhxFrontEnd/internal/stream"
	"GhxFrontEnd/internal/util"
)

func TestPatchLandsOnFreshlyCachedList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/gpu-inspection/list-jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"success": true, "jobs": [{"jobId": "manual-1756721527", "nodeName": "gpu-node-001", "status": "running"}]}`)
	}))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	client := api.NewClient(&util.Config{ServerAddress: parsed.Hostname(), ServerPort: parsed.Port()})

	storage := store.NewPersistentStorage(filepath.Join(t.TempDir(), "state.json"))
	if storage == nil {
		t.Fatal("failed to open storage")
	}
	if err := storage.LoadData(); err != nil {
		t.Fatal(err)
	}

	oldNoEnrich := FlagNoEnrich
	FlagNoEnrich = true
	defer func() { FlagNoEnrich = oldNoEnrich }()

	if _, err := fetchJobs(client, storage); err != nil {
		t.Fatalf("fetchJobs: %v", err)
	}

	// The patcher must see the list the fetch above just cached, not an
	// earlier snapshot.
	patchCachedJob(storage, stream.Event{
		Type:   stream.EventJobStatus,
		JobId:  "manual-1756721527",
		Status: "completed",
		Raw:    []byte(`{"type":"job_status_change","job_id":"manual-1756721527","status":"completed","node_name":"gpu-node-001"}`),
	})

	var jobs []api.Job
	if !storage.Get(store.KeyJobsData, &jobs) {
		t.Fatal("job list missing from storage after patch")
	}
	if len(jobs) != 1 || jobs[0].Status != "completed" {
		t.Fatalf("cached jobs = %+v, want the streamed status applied", jobs)
	}
}
