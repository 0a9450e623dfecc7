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

// Package benchmark holds the per-GPU-model reference throughput values
// and derives a Pass / No Pass / Unknown verdict for a diagnostic record.
package benchmark

import (
	"strconv"
	"strings"

	"GhxFrontEnd/internal/record"
)

// Threshold is the minimum acceptable throughput for one GPU model,
// in GB/s per test.
type Threshold struct {
	P2P  float64
	Nccl float64
	Bw   float64
}

// Reference values measured on healthy hardware.
var defaultThresholds = map[string]Threshold{
	"RTX 3090": {P2P: 18, Nccl: 7, Bw: 20},
	"L40S":     {P2P: 28, Nccl: 9, Bw: 20},
	"RTX 4090": {P2P: 18, Nccl: 7, Bw: 20},
	"A100":     {P2P: 420, Nccl: 70, Bw: 20},
	"A800":     {P2P: 340, Nccl: 55, Bw: 20},
	"H100":     {P2P: 700, Nccl: 139, Bw: 40},
	"H800":     {P2P: 340, Nccl: 65, Bw: 47},
	"H20":      {P2P: 700, Nccl: 139, Bw: 47},
	"H200":     {P2P: 730, Nccl: 145, Bw: 54},
}

// Table resolves GPU model names to thresholds. Lookups for unknown
// models never fail hard; they report that no benchmark is available.
type Table struct {
	thresholds map[string]Threshold
}

// NewTable builds a threshold table from the built-in reference values
// merged with per-model overrides from the runtime configuration.
func NewTable(overrides map[string]Threshold) *Table {
	thresholds := make(map[string]Threshold, len(defaultThresholds)+len(overrides))
	for model, th := range defaultThresholds {
		thresholds[model] = th
	}
	for model, th := range overrides {
		thresholds[model] = th
	}
	return &Table{thresholds: thresholds}
}

func (t *Table) Lookup(model string) (Threshold, bool) {
	th, ok := t.thresholds[model]
	return th, ok
}

// Verdict classifies a node's latest test results.
type Verdict int

const (
	Unknown Verdict = iota
	Pass
	NoPass
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "Pass"
	case NoPass:
		return "No Pass"
	default:
		return "Unknown"
	}
}

// ParseNumericValue extracts the numeric magnitude from a measurement
// string such as "54.9 GB/s". Every character that is not a digit or a
// decimal point is dropped before parsing; anything unparsable yields 0.
// Inputs are controlled ("<number> GB/s"), so the lossy strip is fine.
func ParseNumericValue(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if r == '.' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	value, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return value
}

func healthCheckFailed(status string) bool {
	switch status {
	case "", "Pass", "Skipped", record.NotAvailable:
		return false
	default:
		return true
	}
}

func throughputEvaluated(value string) bool {
	return value != "" && value != record.NotAvailable && value != "Unknown"
}

// Classify derives the single verdict for a record. Tests the operator
// did not select (N/A fields) are never counted as failures, so a record
// with zero evaluated tests classifies as Pass.
func (t *Table) Classify(rec *record.CanonicalRecord) Verdict {
	if rec == nil {
		return Unknown
	}

	if healthCheckFailed(rec.DcgmDiag) || healthCheckFailed(rec.IbCheck) {
		return NoPass
	}

	th, ok := t.Lookup(rec.GpuType)
	if !ok {
		return Unknown
	}

	checks := []struct {
		value     string
		threshold float64
	}{
		{rec.BandwidthTest, th.Bw},
		{rec.P2PBandwidthLatencyTest, th.P2P},
		{rec.NcclTests, th.Nccl},
	}
	for _, check := range checks {
		if !throughputEvaluated(check.value) {
			continue
		}
		if ParseNumericValue(check.value) < check.threshold {
			return NoPass
		}
	}
	return Pass
}
