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

import "GhxFrontEnd/internal/api"

// sampleNodes is the last-resort dataset shown when both the backend and
// the local cache are unavailable, so the table layout stays inspectable.
func sampleNodes() []api.NodeStatus {
	return []api.NodeStatus{
		{NodeName: "gpu-node-001", GpuType: "H200", GpuRequested: 0, NodeStatus: "idle", Timestamp: "2024-01-15T02:00:00Z"},
		{NodeName: "gpu-node-002", GpuType: "H200", GpuRequested: 0, NodeStatus: "idle", Timestamp: "2024-01-15T02:00:00Z"},
		{NodeName: "gpu-node-003", GpuType: "H100", GpuRequested: 8, NodeStatus: "busy", Timestamp: "2024-01-15T02:00:00Z"},
		{NodeName: "gpu-node-004", GpuType: "A100", GpuRequested: 0, NodeStatus: "idle", Timestamp: "2024-01-15T02:00:00Z"},
		{NodeName: "gpu-node-005", GpuType: "H800", GpuRequested: 8, NodeStatus: "busy", Timestamp: "2024-01-15T02:00:00Z"},
	}
}
