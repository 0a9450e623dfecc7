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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"GhxFrontEnd/internal/util"
)

var (
	FlagConfigFilePath string
	FlagJob            string
	FlagSearch         string
	FlagDescending     bool
	FlagPage           int
	FlagPageSize       int
	FlagRefresh        bool
	FlagSource         string
	FlagFull           bool
	FlagNoHeader       bool
	FlagExport         bool
	FlagExportZip      bool
	FlagExportDir      string
	FlagDelete         string
	FlagDeleteAll      bool
	FlagYes            bool
	FlagDebug          bool

	RootCmd = &cobra.Command{
		Use:     "gxresults [flags]",
		Short:   "display, export and delete GPU diagnostic results",
		Long:    "",
		Version: util.Version(),
		Args:    cobra.ExactArgs(0),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config = util.ParseConfig(FlagConfigFilePath)
			util.InitLogger(FlagDebug, config.LogFilePath)
			util.DetectNetworkProxy()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if FlagSource != "results" && FlagSource != "inspection" {
				return fmt.Errorf("invalid source %q, valid sources are 'results' and 'inspection'", FlagSource)
			}
			if FlagExport && FlagJob == "" {
				return fmt.Errorf("--export requires --job")
			}

			switch {
			case FlagDelete != "" || FlagDeleteAll:
				os.Exit(DeleteResults())
			case FlagJob != "":
				os.Exit(QueryJob(FlagJob))
			default:
				os.Exit(Query())
			}
			return nil
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
	RootCmd.Flags().StringVarP(&FlagJob, "job", "j", "",
		"Show the result of one job only")
	RootCmd.Flags().StringVarP(&FlagSearch, "search", "s", "",
		"Show only results whose node name, GPU type or job id contains the given string")
	RootCmd.Flags().BoolVarP(&FlagDescending, "desc", "d", false,
		"Sort failing results before passing ones")
	RootCmd.Flags().IntVar(&FlagPage, "page", 1,
		"Page of the result list to display")
	RootCmd.Flags().IntVar(&FlagPageSize, "page-size", 10,
		"Number of results per page")
	RootCmd.Flags().BoolVarP(&FlagRefresh, "refresh", "r", false,
		"Force a refresh even while the cooldown is active")
	RootCmd.Flags().StringVar(&FlagSource, "source", "results",
		"Result source, 'results' (job based) or 'inspection' (legacy node records)")
	RootCmd.Flags().BoolVarP(&FlagFull, "full", "F", false,
		"Display full information (If not set, only display 30 characters per cell)")
	RootCmd.Flags().BoolVarP(&FlagNoHeader, "noheader", "N", false,
		"Do not print header line in the output")
	RootCmd.Flags().BoolVar(&FlagExport, "export", false,
		"Export the selected job's execution log to a file (requires --job)")
	RootCmd.Flags().BoolVar(&FlagExportZip, "export-zip", false,
		"Export all matching results as a ZIP archive of log files")
	RootCmd.Flags().StringVarP(&FlagExportDir, "export-dir", "o", ".",
		"Directory to write exported files to")
	RootCmd.Flags().StringVar(&FlagDelete, "delete", "",
		"Delete results by job id (comma separated list)")
	RootCmd.Flags().BoolVar(&FlagDeleteAll, "delete-all", false,
		"Delete all diagnostic results")
	RootCmd.Flags().BoolVarP(&FlagYes, "yes", "y", false,
		"Do not ask for confirmation before deleting")
}
