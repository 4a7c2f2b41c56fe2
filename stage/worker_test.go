package stage

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWorkerStage1Success(t *testing.T) {
	var gotItems []WorkItem
	var gotPath string
	Register("worker-test-stage1", func(items []WorkItem, partialPath string) error {
		gotItems = items
		gotPath = partialPath
		return nil
	}, nil)

	req := stage1Request{Items: []WorkItem{{Key: "100", Paths: []string{"a.tif"}}}, PartialPath: "/tmp/partial.tif"}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunWorker("worker-test-stage1", 1, strings.NewReader(string(body)+"\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []WorkItem{{Key: "100", Paths: []string{"a.tif"}}}, gotItems)
	assert.Equal(t, "/tmp/partial.tif", gotPath)

	var res workerResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "/tmp/partial.tif", res.Path)
	assert.Empty(t, res.Err)
}

func TestRunWorkerStage1PropagatesError(t *testing.T) {
	Register("worker-test-stage1-err", func(items []WorkItem, partialPath string) error {
		return assert.AnError
	}, nil)

	req := stage1Request{Items: []WorkItem{{Key: "100"}}, PartialPath: "/tmp/partial.tif"}
	body, _ := json.Marshal(req)

	var out bytes.Buffer
	err := RunWorker("worker-test-stage1-err", 1, strings.NewReader(string(body)+"\n"), &out)
	require.Error(t, err)

	var res workerResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.NotEmpty(t, res.Err)
}

func TestRunWorkerStage2Success(t *testing.T) {
	Register("worker-test-stage2", nil, func(partialPaths []string, outputPath string) error {
		return nil
	})

	req := stage2Request{PartialPaths: []string{"a.tif", "b.tif"}, OutputPath: "/tmp/out.tif"}
	body, _ := json.Marshal(req)

	var out bytes.Buffer
	err := RunWorker("worker-test-stage2", 2, strings.NewReader(string(body)+"\n"), &out)
	require.NoError(t, err)

	var res workerResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "/tmp/out.tif", res.Path)
}

func TestRunWorkerUnknownStageNumber(t *testing.T) {
	Register("worker-test-badstage", func([]WorkItem, string) error { return nil }, func([]string, string) error { return nil })

	var out bytes.Buffer
	err := RunWorker("worker-test-badstage", 3, strings.NewReader("{}\n"), &out)
	require.Error(t, err)
}

func TestRunWorkerUnregisteredKernel(t *testing.T) {
	var out bytes.Buffer
	err := RunWorker("worker-test-missing", 1, strings.NewReader("{}\n"), &out)
	require.Error(t, err)

	var res workerResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.NotEmpty(t, res.Err)
}

func TestRunWorkerEmptyRequestErrors(t *testing.T) {
	Register("worker-test-empty", func([]WorkItem, string) error { return nil }, nil)

	var out bytes.Buffer
	err := RunWorker("worker-test-empty", 1, strings.NewReader(""), &out)
	require.Error(t, err)
}
