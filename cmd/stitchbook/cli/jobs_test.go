package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/jobs"
)

func TestBuildTask(t *testing.T) {
	task, err := BuildTask("reconcile", "")
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskLedgerReconcile, task.Type())

	task, err = BuildTask(jobs.TaskReportsWarmup, "2023")
	require.NoError(t, err)
	var payload jobs.ReportsWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 2023, payload.Year)

	_, err = BuildTask("warmup", "last-year")
	require.Error(t, err)
	_, err = BuildTask("boardpack", "")
	require.Error(t, err)
}

func TestUnconfiguredCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "reconcile", "")
	require.Error(t, err)
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, QueueStats{Queue: jobs.QueueDefault, Pending: 3}))
	assert.Contains(t, buf.String(), "PENDING")
	assert.Contains(t, buf.String(), jobs.QueueDefault)
}
