package record

import (
	"strings"
	"testing"
)

func TestNormalizeLegacyShape(t *testing.T) {
	raw := []byte(`{
		"hostname": "gpu-node-001",
		"gpuType": "H200",
		"bandwidthTest": "54.9 GB/s",
		"p2pBandwidthLatencyTest": "731 GB/s",
		"ncclTests": "146 GB/s",
		"dcgmDiag": "Pass",
		"ibCheck": "Pass",
		"timestamp": "2024-01-15T02:00:00Z"
	}`)

	rec := Normalize(raw)
	if rec.JobId != "" {
		t.Errorf("legacy record got job id %q", rec.JobId)
	}
	if rec.NodeName != "gpu-node-001" {
		t.Errorf("NodeName = %q", rec.NodeName)
	}
	if rec.BandwidthTest != "54.9 GB/s" {
		t.Errorf("BandwidthTest = %q", rec.BandwidthTest)
	}
	if rec.DcgmDiag != "Pass" {
		t.Errorf("DcgmDiag = %q", rec.DcgmDiag)
	}
	if !strings.Contains(rec.Timestamp, "2024-01-15") {
		t.Errorf("Timestamp = %q", rec.Timestamp)
	}
}

func TestNormalizeJobShape(t *testing.T) {
	raw := []byte(`{
		"jobId": "job-42",
		"nodeName": "gpu-node-002",
		"gpuType": "nvidia.com/gpu-h200",
		"bandwidthTest": "54.9 GB/s (pinned)",
		"enabledTests": ["bw", "dcgm"],
		"dcgmDiag": "Pass",
		"ibCheck": "Fail",
		"timestamp": "2024-01-15T02:00:00Z"
	}`)

	rec := Normalize(raw)
	if rec.JobId != "job-42" {
		t.Errorf("JobId = %q", rec.JobId)
	}
	if rec.GpuType != "H200" {
		t.Errorf("GpuType = %q, want canonical H200", rec.GpuType)
	}
	if rec.BandwidthTest != "54.9 GB/s" {
		t.Errorf("BandwidthTest = %q, want annotation stripped", rec.BandwidthTest)
	}
	// ib was not enabled, its reported failure must not leak through.
	if rec.IbCheck != NotAvailable {
		t.Errorf("IbCheck = %q, want %q", rec.IbCheck, NotAvailable)
	}
	if rec.DcgmDiag != "Pass" {
		t.Errorf("DcgmDiag = %q", rec.DcgmDiag)
	}
}

func TestNormalizeDegradesGracefully(t *testing.T) {
	rec := Normalize([]byte(`{}`))
	if rec.NodeName != "Unknown" {
		t.Errorf("NodeName = %q, want Unknown", rec.NodeName)
	}
	if rec.GpuType != "Unknown" {
		t.Errorf("GpuType = %q, want Unknown", rec.GpuType)
	}
	if rec.BandwidthTest != NotAvailable || rec.DcgmDiag != NotAvailable {
		t.Errorf("test fields = %q/%q, want N/A", rec.BandwidthTest, rec.DcgmDiag)
	}
}

func TestCanonicalGpuType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"nvidia.com/gpu-h200", "H200"},
		{"nvidia.com/gpu-a100", "A100"},
		{"H100", "H100"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := CanonicalGpuType(tt.input); got != tt.want {
			t.Errorf("CanonicalGpuType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, NotAvailable},
		{"empty string", "", NotAvailable},
		{"not available", "N/A", NotAvailable},
		{"elapsed duration", "0:00:00.143453", NotAvailable},
		{"garbage passthrough", "not a time", "not a time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.input); got != tt.want {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if got := FormatTimestamp("2024-01-15T02:00:00Z"); !strings.Contains(got, "2024-01-15") {
		t.Errorf("ISO timestamp = %q, want 2024-01-15 date", got)
	}
	if got := FormatTimestamp(float64(1705284000)); len(got) != len("2006-01-02 15:04:05") {
		t.Errorf("epoch timestamp = %q, want display layout", got)
	}
}
