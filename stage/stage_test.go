package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionRoundRobin(t *testing.T) {
	items := []WorkItem{{Key: "a"}, {Key: "b"}, {Key: "c"}, {Key: "d"}, {Key: "e"}}
	buckets := partition(items, 2)

	assert.Len(t, buckets, 2)
	assert.Equal(t, []WorkItem{{Key: "a"}, {Key: "c"}, {Key: "e"}}, buckets[0])
	assert.Equal(t, []WorkItem{{Key: "b"}, {Key: "d"}}, buckets[1])
}

func TestPartitionMoreWorkersThanItems(t *testing.T) {
	items := []WorkItem{{Key: "a"}}
	buckets := partition(items, 3)

	assert.Len(t, buckets, 3)
	assert.Equal(t, []WorkItem{{Key: "a"}}, buckets[0])
	assert.Empty(t, buckets[1])
	assert.Empty(t, buckets[2])
}

func TestLookupUnregisteredKernelErrors(t *testing.T) {
	_, err := lookup("no-such-kernel")
	assert.Error(t, err)
}

func TestRegisterThenLookupReturnsSameFuncs(t *testing.T) {
	calledStage1 := false
	calledStage2 := false
	Register("stage-test-kernel", func(items []WorkItem, partialPath string) error {
		calledStage1 = true
		return nil
	}, func(partialPaths []string, outputPath string) error {
		calledStage2 = true
		return nil
	})

	k, err := lookup("stage-test-kernel")
	assert.NoError(t, err)

	assert.NoError(t, k.stage1(nil, ""))
	assert.NoError(t, k.stage2(nil, ""))
	assert.True(t, calledStage1)
	assert.True(t, calledStage2)
}
