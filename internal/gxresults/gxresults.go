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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/benchmark"
	"GhxFrontEnd/internal/listview"
	"GhxFrontEnd/internal/record"
	"GhxFrontEnd/internal/refresh"
	"GhxFrontEnd/internal/store"
	"GhxFrontEnd/internal/util"
)

var config *util.Config

const (
	refreshSource = "results"
	// Results change much less often than node allocations, so their
	// refresh window is the longer one.
	resultsCooldown = 60 * time.Second
)

// classified is one normalized record with its verdict attached.
type classified struct {
	record  record.CanonicalRecord
	verdict benchmark.Verdict
}

func thresholdTable() *benchmark.Table {
	overrides := make(map[string]benchmark.Threshold, len(config.GpuBenchmarks))
	for model, override := range config.GpuBenchmarks {
		overrides[model] = benchmark.Threshold{
			P2P:  override.P2P,
			Nccl: override.Nccl,
			Bw:   override.Bw,
		}
	}
	return benchmark.NewTable(overrides)
}

func Query() util.GhxCmdError {
	storage := store.NewPersistentStorage(config.StateFilePath)
	if storage == nil {
		return util.ErrorExecuteFailed
	}
	if err := storage.LoadData(); err != nil {
		log.Errorf("Failed to load cached state: %v", err)
	}

	raw := fetchResults(api.NewClient(config), refresh.NewScheduler(storage), storage)
	results := classify(record.NormalizeAll(raw))

	filtered := listview.Filter(results, FlagSearch, func(c classified) string {
		return c.record.NodeName + " " + c.record.GpuType + " " + c.record.JobId
	})

	direction := listview.Ascending
	if FlagDescending {
		direction = listview.Descending
	}
	sorted := listview.SortByOutcome(filtered, direction, func(c classified) listview.Outcome {
		switch c.verdict {
		case benchmark.Pass:
			return listview.OutcomeGood
		case benchmark.NoPass:
			return listview.OutcomeBad
		default:
			return listview.OutcomeNeutral
		}
	})

	if FlagExportZip {
		return exportZip(sorted)
	}

	page, totalPages := listview.Paginate(sorted, FlagPage, FlagPageSize)
	printResults(page, len(sorted))
	if totalPages > 1 {
		printPageStrip(FlagPage, totalPages)
	}
	return util.ErrorSuccess
}

// fetchResults pulls raw records from the selected source through the
// refresh gate, falling back to the cached dataset when blocked or on
// failure.
func fetchResults(client *api.Client, scheduler *refresh.Scheduler, storage *store.PersistentStorage) []json.RawMessage {
	var raw []json.RawMessage

	err := scheduler.Do(refreshSource, FlagRefresh, resultsCooldown, func() error {
		var err error
		if FlagSource == "inspection" {
			var reply *api.InspectionReply
			reply, err = client.Inspection(FlagRefresh)
			if err == nil {
				raw = reply.Nodes
			}
		} else {
			raw, err = client.Results()
		}
		if err != nil {
			return err
		}
		if err := storage.Set(store.KeyResultsData, raw); err != nil {
			log.Warnf("Failed to cache results: %v", err)
		}
		return nil
	})
	if err == nil {
		return raw
	}

	var gate *refresh.RateLimitedError
	var backendLimit *api.RateLimitedError
	switch {
	case errors.As(err, &gate):
		fmt.Printf("Refresh available in %ds, showing cached data.\n", gate.RemainingSeconds)
	case errors.As(err, &backendLimit):
		fmt.Printf("Backend rate limit hit, retry in %ds. Showing cached data.\n",
			scheduler.Remaining(refreshSource))
	default:
		log.Errorf("Failed to fetch diagnostic results: %v", err)
	}

	storage.Get(store.KeyResultsData, &raw)
	return raw
}

func classify(records []record.CanonicalRecord) []classified {
	table := thresholdTable()
	results := make([]classified, len(records))
	for i := range records {
		results[i] = classified{record: records[i], verdict: table.Classify(&records[i])}
	}
	return results
}

func printResults(results []classified, total int) {
	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	if !FlagNoHeader {
		table.SetHeader([]string{"Node", "GpuType", "Bw", "P2p", "Nccl", "Dcgm", "Ib", "Verdict", "Time"})
	}
	tableData := make([][]string, len(results))
	for i, result := range results {
		rec := result.record
		tableData[i] = []string{
			rec.NodeName,
			rec.GpuType,
			rec.BandwidthTest,
			rec.P2PBandwidthLatencyTest,
			rec.NcclTests,
			rec.DcgmDiag,
			rec.IbCheck,
			result.verdict.String(),
			record.FormatTimestamp(rec.Timestamp),
		}
	}
	if !FlagFull {
		util.TrimTable(&tableData)
	}
	table.AppendBulk(tableData)
	table.Render()
	fmt.Printf("%d result(s).\n", total)
}

func printPageStrip(current, total int) {
	fmt.Print("Pages:")
	for _, ref := range listview.PageWindow(current, total) {
		if ref.Ellipsis {
			fmt.Print(" ...")
			continue
		}
		if ref.Page == current {
			fmt.Printf(" [%d]", ref.Page)
		} else {
			fmt.Printf(" %d", ref.Page)
		}
	}
	fmt.Printf(" (page %d of %d)\n", current, total)
}

// QueryJob prints one job's result in full, optionally exporting its
// execution log.
func QueryJob(jobId string) util.GhxCmdError {
	client := api.NewClient(config)
	raw, err := client.ResultByJob(jobId)
	if err != nil {
		log.Errorf("Failed to fetch result of job %s: %v", jobId, err)
		return util.ErrorBackend
	}
	if raw == nil {
		fmt.Printf("No result found for job %s.\n", jobId)
		return util.ErrorSuccess
	}

	rec := record.Normalize(raw)
	verdict := thresholdTable().Classify(&rec)

	fmt.Printf("JobId: %s\n", rec.JobId)
	fmt.Printf("Node: %s\n", rec.NodeName)
	fmt.Printf("GpuType: %s\n", rec.GpuType)
	fmt.Printf("BandwidthTest: %s\n", rec.BandwidthTest)
	fmt.Printf("P2pBandwidthLatencyTest: %s\n", rec.P2PBandwidthLatencyTest)
	fmt.Printf("NcclTests: %s\n", rec.NcclTests)
	fmt.Printf("DcgmDiag: %s\n", rec.DcgmDiag)
	fmt.Printf("IbCheck: %s\n", rec.IbCheck)
	fmt.Printf("Verdict: %s\n", verdict.String())
	fmt.Printf("Time: %s\n", record.FormatTimestamp(rec.Timestamp))

	if FlagExport {
		path, err := exportLog(rec, verdict)
		if err != nil {
			log.Errorf("Failed to export execution log: %v", err)
			return util.ErrorExecuteFailed
		}
		fmt.Printf("Execution log exported to %s.\n", path)
	}
	return util.ErrorSuccess
}

// DeleteResults removes the listed results, or every result with
// --delete-all. Deletion asks for confirmation on a terminal.
func DeleteResults() util.GhxCmdError {
	client := api.NewClient(config)

	var resultIds []string
	if FlagDeleteAll {
		raw, err := client.Results()
		if err != nil {
			log.Errorf("Failed to enumerate results: %v", err)
			return util.ErrorBackend
		}
		for _, rec := range record.NormalizeAll(raw) {
			if rec.JobId != "" {
				resultIds = append(resultIds, rec.JobId)
			}
		}
	} else {
		resultIds = strings.Split(FlagDelete, ",")
	}
	if len(resultIds) == 0 {
		fmt.Println("Nothing to delete.")
		return util.ErrorSuccess
	}

	if !FlagYes {
		prompt := fmt.Sprintf("Delete %d diagnostic result(s)? This cannot be undone.", len(resultIds))
		if !util.ConfirmAction(prompt) {
			fmt.Println("Aborted.")
			return util.ErrorSuccess
		}
	}

	var err error
	if len(resultIds) == 1 {
		err = client.DeleteResult(resultIds[0])
	} else {
		err = client.DeleteResults(resultIds)
	}
	if err != nil {
		log.Errorf("Failed to delete diagnostic result(s): %v", err)
		return util.ErrorBackend
	}
	fmt.Printf("Deleted %d diagnostic result(s).\n", len(resultIds))
	return util.ErrorSuccess
}
