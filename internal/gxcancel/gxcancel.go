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

package gxcancel

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/util"
)

var config *util.Config

// CancelJobs stops the listed jobs, or deletes their records when
// --delete is given. Deletion asks for confirmation on a terminal.
func CancelJobs(idList string) util.GhxCmdError {
	jobIds := strings.Split(idList, ",")
	client := api.NewClient(config)

	if !FlagDelete {
		return stopJobs(client, jobIds)
	}

	if !FlagYes {
		prompt := fmt.Sprintf("Delete %d job record(s)? This cannot be undone.", len(jobIds))
		if !util.ConfirmAction(prompt) {
			fmt.Println("Aborted.")
			return util.ErrorSuccess
		}
	}
	return deleteJobs(client, jobIds)
}

func stopJobs(client *api.Client, jobIds []string) util.GhxCmdError {
	code := util.ErrorSuccess
	for _, jobId := range jobIds {
		if err := client.StopJob(jobId); err != nil {
			log.Errorf("Failed to stop job %s: %v", jobId, err)
			code = util.ErrorBackend
			continue
		}
		fmt.Printf("Job %s is stopping.\n", jobId)
	}
	return code
}

func deleteJobs(client *api.Client, jobIds []string) util.GhxCmdError {
	var err error
	if len(jobIds) == 1 {
		err = client.DeleteJob(jobIds[0])
	} else {
		err = client.DeleteJobs(jobIds)
	}
	if err != nil {
		log.Errorf("Failed to delete job record(s): %v", err)
		return util.ErrorBackend
	}
	fmt.Printf("Deleted %d job record(s).\n", len(jobIds))
	return util.ErrorSuccess
}
