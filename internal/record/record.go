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

// Package record reconciles the two historical diagnostic record shapes
// delivered by the inspection backend into one display-ready form. Older
// node inspection records carry a hostname; job diagnostic results carry
// a jobId, a nodeName and the list of tests the operator enabled.
package record

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const NotAvailable = "N/A"

// CanonicalRecord is the normalized projection of a raw diagnostic record.
// Original keeps the raw JSON for lookups into fields the canonical shape
// does not carry (enabledTests, benchmarkData); it must never be mutated.
type CanonicalRecord struct {
	JobId    string
	NodeName string
	GpuType  string

	BandwidthTest           string
	P2PBandwidthLatencyTest string
	NcclTests               string
	DcgmDiag                string
	IbCheck                 string

	Timestamp     string
	ExecutionTime string
	ExecutionLog  string

	Original []byte
}

// Normalize projects one raw record, in either shape, to the canonical
// form. Malformed input degrades to "Unknown"/"N/A" fields, never errors.
func Normalize(raw []byte) CanonicalRecord {
	r := gjson.ParseBytes(raw)
	if r.Get("jobId").Exists() || r.Get("nodeName").Exists() {
		return normalizeJob(r, raw)
	}
	return normalizeLegacy(r, raw)
}

// NormalizeAll projects a batch of raw records.
func NormalizeAll(raws []json.RawMessage) []CanonicalRecord {
	records := make([]CanonicalRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw))
	}
	return records
}

func normalizeLegacy(r gjson.Result, raw []byte) CanonicalRecord {
	timestamp := firstString(r, "timestamp", "executionTime")
	executionTime := firstString(r, "executionTime", "timestamp")

	return CanonicalRecord{
		NodeName:                firstStringOr(r, "Unknown", "hostname", "nodeName"),
		GpuType:                 CanonicalGpuType(r.Get("gpuType").String()),
		BandwidthTest:           testField(r, "bandwidthTest"),
		P2PBandwidthLatencyTest: testField(r, "p2pBandwidthLatencyTest"),
		NcclTests:               testField(r, "ncclTests"),
		DcgmDiag:                testField(r, "dcgmDiag"),
		IbCheck:                 testField(r, "ibCheck"),
		Timestamp:               FormatTimestampResult(timestamp),
		ExecutionTime:           FormatTimestampResult(executionTime),
		ExecutionLog:            stringOr(r.Get("executionLog"), NotAvailable),
		Original:                raw,
	}
}

func normalizeJob(r gjson.Result, raw []byte) CanonicalRecord {
	timestamp := firstString(r, "timestamp", "executionTime", "completedAt")
	createdAt := firstString(r, "createdAt", "timestamp", "creationTimestamp")

	rec := CanonicalRecord{
		JobId:                   r.Get("jobId").String(),
		NodeName:                firstStringOr(r, "Unknown", "nodeName", "hostname"),
		GpuType:                 CanonicalGpuType(r.Get("gpuType").String()),
		BandwidthTest:           throughputField(r, "bandwidthTest"),
		P2PBandwidthLatencyTest: throughputField(r, "p2pBandwidthLatencyTest"),
		NcclTests:               throughputField(r, "ncclTests"),
		DcgmDiag:                NotAvailable,
		IbCheck:                 NotAvailable,
		Timestamp:               FormatTimestampResult(timestamp),
		ExecutionTime:           FormatTimestampResult(createdAt),
		ExecutionLog:            stringOr(r.Get("executionLog"), NotAvailable),
		Original:                raw,
	}

	// Health checks the operator did not enable stay N/A so they are
	// never read as failures downstream.
	if testEnabled(r, "dcgm") {
		rec.DcgmDiag = testField(r, "dcgmDiag")
	}
	if testEnabled(r, "ib") {
		rec.IbCheck = testField(r, "ibCheck")
	}
	return rec
}

// CanonicalGpuType maps resource-style names like "nvidia.com/gpu-h200"
// to the bare model name used by the benchmark table.
func CanonicalGpuType(gpuType string) string {
	if gpuType == "" {
		return "Unknown"
	}
	if strings.Contains(gpuType, "nvidia.com/gpu-") {
		return strings.ToUpper(strings.Replace(gpuType, "nvidia.com/gpu-", "", 1))
	}
	return gpuType
}

func testEnabled(r gjson.Result, name string) bool {
	enabled := r.Get("enabledTests")
	if !enabled.Exists() {
		return false
	}
	found := false
	enabled.ForEach(func(_, value gjson.Result) bool {
		if value.String() == name || strings.HasPrefix(value.String(), name) {
			found = true
			return false
		}
		return true
	})
	return found
}

func testField(r gjson.Result, key string) string {
	return stringOr(r.Get(key), NotAvailable)
}

// throughputField strips a "(...)"-style annotation some backends append
// after the measured value.
func throughputField(r gjson.Result, key string) string {
	value := testField(r, key)
	if strings.Contains(value, "GB/s") {
		if idx := strings.Index(value, "("); idx >= 0 {
			value = strings.TrimSpace(value[:idx])
		}
	}
	return value
}

func stringOr(res gjson.Result, fallback string) string {
	if !res.Exists() || res.String() == "" {
		return fallback
	}
	return res.String()
}

func firstString(r gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if res := r.Get(key); res.Exists() && res.String() != "" {
			return res
		}
	}
	return gjson.Result{}
}

func firstStringOr(r gjson.Result, fallback string, keys ...string) string {
	if res := firstString(r, keys...); res.Exists() {
		return res.String()
	}
	return fallback
}
