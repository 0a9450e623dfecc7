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
	"os"

	"github.com/spf13/cobra"

	"GhxFrontEnd/internal/util"
)

var (
	FlagConfigFilePath string
	FlagNodes          []string
	FlagTests          []string
	FlagDcgmLevel      int
	FlagDebug          bool

	RootCmd = &cobra.Command{
		Use:     "gxrun --nodes node[,node...] [flags]",
		Short:   "start a diagnostic job on the selected nodes",
		Long:    "",
		Version: util.Version(),
		Args:    cobra.ExactArgs(0),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config = util.ParseConfig(FlagConfigFilePath)
			util.InitLogger(FlagDebug, config.LogFilePath)
			util.DetectNetworkProxy()
		},
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(CreateJob())
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
	RootCmd.Flags().StringSliceVarP(&FlagNodes, "nodes", "w", nil,
		"Nodes to run diagnostics on (comma separated list)")
	RootCmd.Flags().StringSliceVarP(&FlagTests, "tests", "t",
		[]string{"bw", "p2p", "nccl", "dcgm", "ib"},
		"Tests to run. Valid tests are 'bw', 'p2p', 'nccl', 'dcgm' and 'ib'")
	RootCmd.Flags().IntVarP(&FlagDcgmLevel, "dcgm-level", "l", 1,
		"DCGM diagnostic level (1 to 4)")
}
