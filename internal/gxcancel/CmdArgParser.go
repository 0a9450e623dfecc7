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
	"os"

	"github.com/spf13/cobra"

	"GhxFrontEnd/internal/util"
)

var (
	FlagConfigFilePath string
	FlagDelete         bool
	FlagYes            bool
	FlagDebug          bool

	RootCmd = &cobra.Command{
		Use:     "gxcancel job_id[,job_id...] [flags]",
		Short:   "stop or delete diagnostic jobs",
		Long:    "",
		Version: util.Version(),
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			if args[0] == "" {
				return fmt.Errorf("at least one job id must be given")
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config = util.ParseConfig(FlagConfigFilePath)
			util.InitLogger(FlagDebug, config.LogFilePath)
			util.DetectNetworkProxy()
		},
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(CancelJobs(args[0]))
		},
	}
)

func ParseCmdArgs() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(util.ErrorCmdArg)
	}
}

func init() {
	RootCmd.SetVersionTemplate(util.VersionTemplate())
	RootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "C",
		util.DefaultConfigPath, "Path to configuration file")
	RootCmd.PersistentFlags().BoolVar(&FlagDebug, "debug", false,
		"Enable debug logging")
	RootCmd.Flags().BoolVarP(&FlagDelete, "delete", "d", false,
		"Delete the job records instead of stopping the jobs")
	RootCmd.Flags().BoolVarP(&FlagYes, "yes", "y", false,
		"Do not ask for confirmation before deleting")
}
