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

package gxrun

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"GhxFrontEnd/internal/api"
	"GhxFrontEnd/internal/util"
)

var config *util.Config

var validTests = map[string]bool{
	"bw":   true,
	"p2p":  true,
	"nccl": true,
	"dcgm": true,
	"ib":   true,
}

// validate rejects a request locally before anything goes on the wire.
func validate() error {
	if len(FlagNodes) == 0 {
		return errors.New("at least one node must be selected")
	}
	if len(FlagTests) == 0 {
		return errors.New("at least one test must be selected")
	}
	for _, test := range FlagTests {
		if !validTests[test] {
			return fmt.Errorf("invalid test %q, valid tests are bw, p2p, nccl, dcgm, ib", test)
		}
	}
	if FlagDcgmLevel < 1 || FlagDcgmLevel > 4 {
		return fmt.Errorf("invalid DCGM level %d, must be between 1 and 4", FlagDcgmLevel)
	}
	return nil
}

func CreateJob() util.GhxCmdError {
	if err := validate(); err != nil {
		log.Errorln(err)
		return util.ErrorCmdArg
	}

	client := api.NewClient(config)
	jobId, err := client.CreateJob(&api.CreateJobRequest{
		SelectedNodes: FlagNodes,
		EnabledTests:  FlagTests,
		DcgmLevel:     FlagDcgmLevel,
	})
	if err != nil {
		var backendLimit *api.RateLimitedError
		if errors.As(err, &backendLimit) {
			log.Errorf("Backend rate limit hit, retry in %s", backendLimit.RetryAfter)
			os.Exit(util.ErrorRateLimited)
		}
		log.Errorf("Failed to create diagnostic job: %v", err)
		return util.ErrorBackend
	}

	fmt.Printf("Diagnostic job %s created on %d node(s).\n", jobId, len(FlagNodes))
	return util.ErrorSuccess
}
