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

package gxresults

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"GhxFrontEnd/internal/benchmark"
	"GhxFrontEnd/internal/record"
	"GhxFrontEnd/internal/util"
)

// firstRaw returns the first of the given JSON fields that exists in the
// original record, pretty-printed, or fallback when none does. Records
// from different backend generations spell these fields differently.
func firstRaw(original []byte, fallback string, fields ...string) string {
	for _, field := range fields {
		value := gjson.GetBytes(original, field)
		if !value.Exists() {
			continue
		}
		if value.Type == gjson.String {
			return value.String()
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(value.Raw), "", "  "); err != nil {
			return value.Raw
		}
		return pretty.String()
	}
	return fallback
}

func buildExportContent(rec record.CanonicalRecord, verdict benchmark.Verdict) string {
	completed := rec.Timestamp
	if completed == "" || completed == record.NotAvailable {
		completed = rec.ExecutionTime
	}

	executionLog := rec.ExecutionLog
	if executionLog == "" || executionLog == record.NotAvailable {
		executionLog = firstRaw(rec.Original, "No log available",
			"executionLog", "execution_log", "log")
	}

	return fmt.Sprintf(`=== GPU Diagnostic Execution Log ===
Host: %s
GPU Type: %s
Job ID: %s
DCGM Level: %s
Completed: %s
Overall Result: %s

=== Benchmark Data ===
%s

=== Test Results ===
%s

=== Execution Log ===
%s

=== Export Info ===
Exported At: %s
Source: GPU Diagnostics System
`,
		orNA(rec.NodeName),
		orNA(rec.GpuType),
		orNA(rec.JobId),
		firstRaw(rec.Original, record.NotAvailable, "dcgmLevel", "dcgm_level"),
		record.FormatTimestamp(completed),
		verdict.String(),
		firstRaw(rec.Original, "{}", "benchmarkData", "benchmark_data", "benchmark"),
		firstRaw(rec.Original, "{}", "testResults", "test_results"),
		executionLog,
		time.Now().Format("2006-01-02 15:04:05"))
}

func orNA(s string) string {
	if s == "" {
		return record.NotAvailable
	}
	return s
}

func logFileName(rec record.CanonicalRecord) string {
	name := rec.NodeName
	if name == "" || name == "Unknown" {
		name = rec.JobId
	}
	if name == "" {
		name = "result"
	}
	return fmt.Sprintf("diagnostic_result_%s_%s.log", name, time.Now().Format("2006-01-02"))
}

// exportLog writes one result's execution log file and returns its path.
func exportLog(rec record.CanonicalRecord, verdict benchmark.Verdict) (string, error) {
	path := filepath.Join(FlagExportDir, logFileName(rec))
	content := buildExportContent(rec, verdict)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// exportZip bundles every matching result into one ZIP archive of log
// files.
func exportZip(results []classified) util.GhxCmdError {
	if len(results) == 0 {
		fmt.Println("Nothing to export.")
		return util.ErrorSuccess
	}

	path := filepath.Join(FlagExportDir,
		fmt.Sprintf("diagnostic_results_%d_items_%s.zip", len(results), time.Now().Format("2006-01-02")))
	file, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create archive: %v\n", err)
		return util.ErrorExecuteFailed
	}
	defer file.Close()

	archive := zip.NewWriter(file)
	seen := make(map[string]int)
	for _, result := range results {
		name := logFileName(result.record)
		// Several results can share a node name within one day.
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s.%d", name, n)
		}
		entry, err := archive.Create(name)
		if err != nil {
			archive.Close()
			return util.ErrorExecuteFailed
		}
		content := buildExportContent(result.record, result.verdict)
		if _, err := entry.Write([]byte(content)); err != nil {
			archive.Close()
			return util.ErrorExecuteFailed
		}
	}
	if err := archive.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to finalize archive: %v\n", err)
		return util.ErrorExecuteFailed
	}

	fmt.Printf("Exported %d result(s) to %s.\n", len(results), path)
	return util.ErrorSuccess
}
