package gxresults

import (
	"strings"
	"testing"
	"time"

	"GhxFrontEnd/internal/benchmark"
	"GhxFrontEnd/internal/record"
)

func TestBuildExportContent(t *testing.T) {
	raw := []byte(`{
		"jobId": "job-9",
		"nodeName": "gpu-node-001",
		"dcgmLevel": 2,
		"benchmarkData": {"bw": "54.9 GB/s"},
		"testResults": {"dcgmDiag": "Pass"},
		"executionLog": "all tests passed"
	}`)
	rec := record.Normalize(raw)

	content := buildExportContent(rec, benchmark.Pass)

	for _, want := range []string{
		"=== GPU Diagnostic Execution Log ===",
		"Host: gpu-node-001",
		"Job ID: job-9",
		"DCGM Level: 2",
		"Overall Result: Pass",
		"=== Benchmark Data ===",
		`"bw": "54.9 GB/s"`,
		"=== Test Results ===",
		"=== Execution Log ===",
		"all tests passed",
		"=== Export Info ===",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("export content missing %q", want)
		}
	}
}

func TestBuildExportContentSnakeCaseFields(t *testing.T) {
	raw := []byte(`{"hostname": "gpu-node-002", "execution_log": "legacy log", "benchmark_data": {"p2p": "730 GB/s"}}`)
	rec := record.Normalize(raw)

	content := buildExportContent(rec, benchmark.Unknown)
	if !strings.Contains(content, "legacy log") {
		t.Error("snake_case execution log not picked up")
	}
	if !strings.Contains(content, `"p2p": "730 GB/s"`) {
		t.Error("snake_case benchmark data not picked up")
	}
}

func TestLogFileName(t *testing.T) {
	date := time.Now().Format("2006-01-02")

	rec := record.CanonicalRecord{NodeName: "gpu-node-001"}
	if got, want := logFileName(rec), "diagnostic_result_gpu-node-001_"+date+".log"; got != want {
		t.Errorf("logFileName = %q, want %q", got, want)
	}

	rec = record.CanonicalRecord{NodeName: "Unknown", JobId: "job-3"}
	if got := logFileName(rec); !strings.Contains(got, "job-3") {
		t.Errorf("logFileName = %q, want job id fallback", got)
	}
}
