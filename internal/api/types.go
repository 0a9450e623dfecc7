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

package api

import "encoding/json"

// NodeStatus is one row of the cluster resource view.
type NodeStatus struct {
	NodeName     string `json:"nodeName"`
	GpuType      string `json:"gpuType"`
	GpuRequested int    `json:"gpuRequested"`
	NodeStatus   string `json:"nodeStatus"`
	Timestamp    string `json:"timestamp"`
}

func (n NodeStatus) Idle() bool {
	return n.NodeStatus == "idle"
}

// NodeSummary aggregates a node status snapshot.
type NodeSummary struct {
	TotalNodes  int
	IdleNodes   int
	BusyNodes   int
	LastUpdated string
}

func Summarize(nodes []NodeStatus) NodeSummary {
	summary := NodeSummary{TotalNodes: len(nodes)}
	for _, node := range nodes {
		if node.Idle() {
			summary.IdleNodes++
		} else {
			summary.BusyNodes++
		}
	}
	if len(nodes) > 0 {
		summary.LastUpdated = nodes[0].Timestamp
	}
	return summary
}

// Job is one backend-tracked diagnostic job.
type Job struct {
	JobId            string   `json:"jobId"`
	NodeName         string   `json:"nodeName,omitempty"`
	Status           string   `json:"status"`
	PodStatus        string   `json:"podStatus,omitempty"`
	EnabledTests     []string `json:"enabledTests,omitempty"`
	DcgmLevel        int      `json:"dcgmLevel,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	LastStatusUpdate string   `json:"lastStatusUpdate,omitempty"`
}

// JobStatus is the live status answer for one job.
type JobStatus struct {
	Status    string  `json:"status"`
	PodStatus string  `json:"podStatus"`
	Timestamp float64 `json:"timestamp"`
}

// CreateJobRequest starts a diagnostic run on the selected nodes.
type CreateJobRequest struct {
	SelectedNodes []string `json:"selectedNodes"`
	EnabledTests  []string `json:"enabledTests"`
	DcgmLevel     int      `json:"dcgmLevel"`
}

// InspectionReply carries legacy node inspection records. The records
// stay raw; the record package owns their interpretation.
type InspectionReply struct {
	Nodes       []json.RawMessage
	LastUpdated string
}
