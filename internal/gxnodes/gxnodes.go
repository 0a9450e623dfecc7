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

package gxnodes

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/listview"
	"GhxFrontEnd/internal/record"
	"GhxFrontEnd/internal/refresh"
	"GhxFrontEnd/internal/store"
	"GhxFrontEnd/internal/util"
)

var config *util.Config

const refreshSource = "gpu"

// Query fetches, caches and prints the node allocation table once.
func Query() util.GhxCmdError {
	storage := store.NewPersistentStorage(config.StateFilePath)
	if storage == nil {
		return util.ErrorExecuteFailed
	}
	if err := storage.LoadData(); err != nil {
		log.Errorf("Failed to load cached state: %v", err)
	}

	scheduler := refresh.NewScheduler(storage)
	client := api.NewClient(config)

	nodes, stale := fetchNodes(client, scheduler, storage)
	printNodes(nodes, stale)
	return util.ErrorSuccess
}

// fetchNodes goes backend, then cache, then the built-in sample set.
// The second return value reports whether the data is not live.
func fetchNodes(client *api.Client, scheduler *refresh.Scheduler, storage *store.PersistentStorage) ([]api.NodeStatus, bool) {
	var nodes []api.NodeStatus

	err := scheduler.Do(refreshSource, FlagRefresh, refresh.SuccessCooldown, func() error {
		fetched, err := client.NodeStatus()
		if err != nil {
			return err
		}
		nodes = fetched
		if err := storage.Set(store.KeyNodeStatusData, nodes); err != nil {
			log.Warnf("Failed to cache node status: %v", err)
		}
		storage.Set(store.KeyHasInitialized, true)
		return nil
	})
	if err == nil {
		return nodes, false
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
		log.Errorf("Failed to fetch node status: %v", err)
	}

	if storage.Get(store.KeyNodeStatusData, &nodes) && len(nodes) > 0 {
		return nodes, true
	}
	log.Warnf("No cached node status available, using sample data")
	return sampleNodes(), true
}

func printNodes(nodes []api.NodeStatus, stale bool) {
	filtered := listview.Filter(nodes, FlagSearch, func(n api.NodeStatus) string {
		return n.NodeName + " " + n.GpuType
	})

	direction := listview.Ascending
	if FlagSortBusy {
		direction = listview.Descending
	}
	sorted := listview.SortByOutcome(filtered, direction, func(n api.NodeStatus) listview.Outcome {
		if n.Idle() {
			return listview.OutcomeGood
		}
		return listview.OutcomeBad
	})

	page, totalPages := listview.Paginate(sorted, FlagPage, FlagPageSize)

	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	if !FlagNoHeader {
		table.SetHeader([]string{"NodeName", "GpuType", "GpuRequested", "Status", "Timestamp"})
	}
	tableData := make([][]string, len(page))
	for i, node := range page {
		tableData[i] = []string{
			node.NodeName,
			node.GpuType,
			strconv.Itoa(node.GpuRequested),
			node.NodeStatus,
			record.FormatTimestamp(node.Timestamp),
		}
	}
	table.AppendBulk(tableData)
	table.Render()

	summary := api.Summarize(sorted)
	fmt.Printf("Nodes: %d total, %d idle, %d busy",
		summary.TotalNodes, summary.IdleNodes, summary.BusyNodes)
	if summary.LastUpdated != "" {
		fmt.Printf(", last updated %s", record.FormatTimestamp(summary.LastUpdated))
	}
	if stale {
		fmt.Print(" (cached)")
	}
	fmt.Println()

	if totalPages > 1 {
		printPageStrip(FlagPage, totalPages)
	}
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

func IterateQuery(iterate uint64) util.GhxCmdError {
	storage := store.NewPersistentStorage(config.StateFilePath)
	if storage != nil {
		storage.LoadData()
		storage.Set(store.KeyAutoRefresh, true)
	}

	interval := time.Duration(iterate) * time.Second
	for {
		if code := Query(); code != util.ErrorSuccess {
			return code
		}
		time.Sleep(interval)
	}
}
