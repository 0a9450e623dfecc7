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
	"os"

	"github.com/spf13/cobra"

	"GhxFrontEnd/internal/util"
)

var (
	FlagConfigFilePath string
	FlagIterate        uint64
	FlagWatch          bool
	FlagNoHeader       bool
	FlagNoEnrich       bool
	FlagDebug          bool

	RootCmd = &cobra.Command{
		Use:     "gxqueue [flags]",
		Short:   "display diagnostic jobs and their live status",
		Long:    "",
		Version: util.Version(),
		Args:    cobra.ExactArgs(0),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config = util.ParseConfig(FlagConfigFilePath)
			util.InitLogger(FlagDebug, config.LogFilePath)
			util.DetectNetworkProxy()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if FlagWatch {
				os.Exit(Watch())
			}
			if FlagIterate != 0 {
				os.Exit(IterateQuery(FlagIterate))
			}
			os.Exit(Query())
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
	RootCmd.Flags().Uint64VarP(&FlagIterate, "iterate", "i", 0,
		"Display at specified intervals (seconds), default is 0 (no iteration)")
	RootCmd.Flags().BoolVarP(&FlagWatch, "watch", "W", false,
		"Follow job status changes over the event stream")
	RootCmd.Flags().BoolVarP(&FlagNoHeader, "noheader", "N", false,
		"Do not print header line in the output")
	RootCmd.Flags().BoolVar(&FlagNoEnrich, "no-enrich", false,
		"Skip the per-job live status probe")
}
