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
	"os"

	"github.com/spf13/cobra"

	"GhxFrontEnd/internal/util"
)

var (
	FlagConfigFilePath string
	FlagRefresh        bool
	FlagSearch         string
	FlagSortBusy       bool
	FlagPage           int
	FlagPageSize       int
	FlagIterate        uint64
	FlagNoHeader       bool
	FlagDebug          bool

	RootCmd = &cobra.Command{
		Use:     "gxnodes [flags]",
		Short:   "display GPU node allocation status",
		Long:    "",
		Version: util.Version(),
		Args:    cobra.ExactArgs(0),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config = util.ParseConfig(FlagConfigFilePath)
			util.InitLogger(FlagDebug, config.LogFilePath)
			util.DetectNetworkProxy()
		},
		Run: func(cmd *cobra.Command, args []string) {
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
	RootCmd.Flags().BoolVarP(&FlagRefresh, "refresh", "r", false,
		"Force a refresh even while the cooldown is active")
	RootCmd.Flags().StringVarP(&FlagSearch, "search", "s", "",
		"Show only nodes whose name contains the given string")
	RootCmd.Flags().BoolVar(&FlagSortBusy, "sort-busy", false,
		"Sort busy nodes before idle ones")
	RootCmd.Flags().IntVar(&FlagPage, "page", 1,
		"Page of the node list to display")
	RootCmd.Flags().IntVar(&FlagPageSize, "page-size", 10,
		"Number of nodes per page")
	RootCmd.Flags().Uint64VarP(&FlagIterate, "iterate", "i", 0,
		"Display at specified intervals (seconds), default is 0 (no iteration)")
	RootCmd.Flags().BoolVarP(&FlagNoHeader, "noheader", "N", false,
		"Do not print header line in the output")
}
