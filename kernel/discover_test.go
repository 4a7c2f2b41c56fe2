package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverAoHWorkItemsGroupsBySpecies(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"100_RESIDENT.tif",
		"100_NONBREEDING.tif",
		"200_RESIDENT.tif",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	items, err := DiscoverAoHWorkItems(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "100", items[0].Key)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "100_NONBREEDING.tif"),
		filepath.Join(dir, "100_RESIDENT.tif"),
	}, items[0].Paths)

	assert.Equal(t, "200", items[1].Key)
	assert.Equal(t, []string{filepath.Join(dir, "200_RESIDENT.tif")}, items[1].Paths)
}

func TestDiscoverAoHWorkItemsIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0o644))

	items, err := DiscoverAoHWorkItems(dir)
	require.NoError(t, err)
	assert.Empty(t, items)
}
