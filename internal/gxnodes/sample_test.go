package gxnodes

import "testing"

func TestSampleNodesIdleMeansNoGpusRequested(t *testing.T) {
	for _, node := range sampleNodes() {
		if node.Idle() != (node.GpuRequested == 0) {
			t.Errorf("node %s: status %q with %d GPUs requested",
				node.NodeName, node.NodeStatus, node.GpuRequested)
		}
	}
}
