package benchmark

import (
	"testing"

	"GhxFrontEnd/internal/record"
)

func TestParseNumericValue(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"54.9 GB/s", 54.9},
		{"730GB/s", 730},
		{"145", 145},
		{"N/A", 0},
		{"", 0},
		{"GB/s", 0},
		{"12.5.3", 0},
		{"  40 GB/s  ", 40},
	}
	for _, tt := range tests {
		if got := ParseNumericValue(tt.input); got != tt.want {
			t.Errorf("ParseNumericValue(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLookupMergesOverrides(t *testing.T) {
	table := NewTable(map[string]Threshold{
		"H200":   {P2P: 800, Nccl: 150, Bw: 60},
		"FOOGPU": {P2P: 1, Nccl: 1, Bw: 1},
	})

	th, ok := table.Lookup("H200")
	if !ok || th.P2P != 800 {
		t.Errorf("override not applied, got %+v ok=%v", th, ok)
	}
	if _, ok := table.Lookup("FOOGPU"); !ok {
		t.Error("new model from override missing")
	}
	if th, ok := table.Lookup("A100"); !ok || th.P2P != 420 {
		t.Errorf("default model lost, got %+v ok=%v", th, ok)
	}
}

func TestClassify(t *testing.T) {
	table := NewTable(nil)

	tests := []struct {
		name string
		rec  record.CanonicalRecord
		want Verdict
	}{
		{
			name: "dcgm failure wins",
			rec: record.CanonicalRecord{
				GpuType:       "H200",
				BandwidthTest: "55 GB/s",
				DcgmDiag:      "Fail",
			},
			want: NoPass,
		},
		{
			name: "ib failure wins even on unknown model",
			rec: record.CanonicalRecord{
				GpuType: "FOOGPU",
				IbCheck: "Error",
			},
			want: NoPass,
		},
		{
			name: "unknown model",
			rec: record.CanonicalRecord{
				GpuType:       "FOOGPU",
				BandwidthTest: "55 GB/s",
				DcgmDiag:      "Pass",
			},
			want: Unknown,
		},
		{
			name: "throughput above threshold",
			rec: record.CanonicalRecord{
				GpuType:                 "H200",
				BandwidthTest:           "54.9 GB/s",
				P2PBandwidthLatencyTest: "731 GB/s",
				NcclTests:               "146 GB/s",
				DcgmDiag:                "Pass",
				IbCheck:                 "Pass",
			},
			want: Pass,
		},
		{
			name: "throughput below threshold",
			rec: record.CanonicalRecord{
				GpuType:       "H200",
				BandwidthTest: "40 GB/s",
				DcgmDiag:      "Pass",
			},
			want: NoPass,
		},
		{
			name: "unparsable throughput counts as zero",
			rec: record.CanonicalRecord{
				GpuType:       "H200",
				BandwidthTest: "garbage",
			},
			want: NoPass,
		},
		{
			name: "skipped tests never fail",
			rec: record.CanonicalRecord{
				GpuType:                 "H200",
				BandwidthTest:           record.NotAvailable,
				P2PBandwidthLatencyTest: record.NotAvailable,
				NcclTests:               record.NotAvailable,
				DcgmDiag:                "Skipped",
				IbCheck:                 record.NotAvailable,
			},
			want: Pass,
		},
		{
			name: "nothing evaluated is a pass",
			rec: record.CanonicalRecord{
				GpuType: "A100",
			},
			want: Pass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Classify(&tt.rec); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := table.Classify(nil); got != Unknown {
		t.Errorf("Classify(nil) = %v, want Unknown", got)
	}
}
