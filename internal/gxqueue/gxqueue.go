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

package gxqueue

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/record"
	"GhxFrontEnd/internal/refresh"
	"GhxFrontEnd/internal/store"
	"GhxFrontEnd/internal/util"
)

var config *util.Config

func Query() util.GhxCmdError {
	storage := openStorage()
	if storage == nil {
		return util.ErrorExecuteFailed
	}
	return queryOnce(api.NewClient(config), storage)
}

func openStorage() *store.PersistentStorage {
	storage := store.NewPersistentStorage(config.StateFilePath)
	if storage == nil {
		return nil
	}
	if err := storage.LoadData(); err != nil {
		log.Errorf("Failed to load cached state: %v", err)
	}
	return storage
}

// queryOnce fetches and prints the job list through the given storage,
// so watch mode's patcher sees the list this fetch cached.
func queryOnce(client *api.Client, storage *store.PersistentStorage) util.GhxCmdError {
	jobs, err := fetchJobs(client, storage)
	if err != nil {
		log.Errorf("Failed to fetch job list: %v", err)
		if !storage.Get(store.KeyJobsData, &jobs) {
			return util.ErrorNetwork
		}
		fmt.Println("Showing cached job list.")
	}

	printJobs(jobs)
	return util.ErrorSuccess
}

// fetchJobs lists the jobs and enriches each with its live status. A
// failed status probe keeps the job's listed state, enrichment is best
// effort. The merged list is cached for offline display and for the
// watch-mode patcher.
func fetchJobs(client *api.Client, storage *store.PersistentStorage) ([]api.Job, error) {
	jobs, err := client.ListJobs()
	if err != nil {
		return nil, err
	}

	if !FlagNoEnrich {
		for i := range jobs {
			status, err := client.JobStatus(jobs[i].JobId)
			if err != nil {
				log.Debugf("Status probe for job %s failed: %v", jobs[i].JobId, err)
				continue
			}
			if status.Status != "" {
				jobs[i].Status = status.Status
			}
			jobs[i].PodStatus = status.PodStatus
			jobs[i].LastStatusUpdate = record.FormatTimestamp(status.Timestamp)
		}
	}

	if err := storage.Set(store.KeyJobsData, jobs); err != nil {
		log.Warnf("Failed to cache job list: %v", err)
	}
	return jobs, nil
}

func printJobs(jobs []api.Job) {
	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	if !FlagNoHeader {
		table.SetHeader([]string{"JobId", "Node", "Status", "PodStatus", "Tests", "DcgmLevel", "Created", "LastUpdate"})
	}
	tableData := make([][]string, len(jobs))
	for i, job := range jobs {
		tableData[i] = []string{
			job.JobId,
			job.NodeName,
			job.Status,
			job.PodStatus,
			strings.Join(job.EnabledTests, ","),
			strconv.Itoa(job.DcgmLevel),
			record.FormatTimestamp(job.CreatedAt),
			record.FormatTimestamp(job.LastStatusUpdate),
		}
	}
	table.AppendBulk(tableData)
	table.Render()
	fmt.Printf("%d job(s).\n", len(jobs))
}

// IterateQuery polls with the given interval, or adaptively when the
// interval is 0: quick while jobs start, slower when the queue is idle.
func IterateQuery(iterate uint64) util.GhxCmdError {
	for {
		if code := Query(); code != util.ErrorSuccess {
			return code
		}

		interval := time.Duration(iterate) * time.Second
		if iterate == 0 {
			storage := store.NewPersistentStorage(config.StateFilePath)
			var jobs []api.Job
			if storage != nil {
				storage.LoadData()
				storage.Get(store.KeyJobsData, &jobs)
			}
			statuses := make([]string, len(jobs))
			for i, job := range jobs {
				statuses[i] = job.Status
			}
			interval = refresh.SuggestedInterval(statuses)
			log.Debugf("Next poll in %s", interval)
		}
		time.Sleep(interval)
	}
}
