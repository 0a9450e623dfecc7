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

package util

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// BenchmarkOverride replaces the built-in thresholds for one GPU model.
// All values are GB/s.
type BenchmarkOverride struct {
	P2P  float64 `yaml:"p2p"`
	Nccl float64 `yaml:"nccl"`
	Bw   float64 `yaml:"bw"`
}

type Config struct {
	ServerAddress string `yaml:"ServerAddress"`
	ServerPort    string `yaml:"ServerPort"`

	UseTls bool `yaml:"UseTls"`

	RequestTimeoutSec int `yaml:"RequestTimeoutSec"`

	StateFilePath string `yaml:"StateFilePath"`
	LogFilePath   string `yaml:"LogFilePath"`

	GpuBenchmarks map[string]BenchmarkOverride `yaml:"GpuBenchmarks"`
}

var (
	DefaultConfigPath    string
	DefaultStateFilePath string
)

func init() {
	DefaultConfigPath = "/etc/ghx/config.yaml"
	DefaultStateFilePath = "/tmp/ghx/state.json"
}

func DefaultConfig() *Config {
	return &Config{
		ServerAddress:     "localhost",
		ServerPort:        "5000",
		RequestTimeoutSec: 15,
		StateFilePath:     DefaultStateFilePath,
	}
}

// ParseConfig reads the yaml config at path. A missing file is not an
// error; the defaults target a local backend.
func ParseConfig(path string) *Config {
	config := DefaultConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Config file %s not found, using defaults", path)
			return config
		}
		log.Errorf("Failed to read config file %s: %v", path, err)
		os.Exit(ErrorCmdArg)
	}

	if err = yaml.Unmarshal(content, config); err != nil {
		log.Errorf("Failed to parse config file %s: %v", path, err)
		os.Exit(ErrorCmdArg)
	}
	return config
}

// BaseUrl builds the backend base URL from the configured address and port.
func (c *Config) BaseUrl() string {
	scheme := "http"
	if c.UseTls {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, c.ServerAddress, c.ServerPort)
}
