package deltap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameFormatsTaxonAndSeason(t *testing.T) {
	assert.Equal(t, "100_RESIDENT.tif", filename(100, "RESIDENT"))
	assert.Equal(t, "200_NONBREEDING.tif", filename(200, "NONBREEDING"))
}

func TestOpenAoHMissingOptionalReturnsNil(t *testing.T) {
	dir := t.TempDir()
	layer, err := openAoH(dir, "missing.tif", false)
	require.NoError(t, err)
	assert.Nil(t, layer)
}

func TestOpenAoHMissingRequiredErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := openAoH(dir, "missing.tif", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "missing.tif"))
}

func TestCommandRequiredFlags(t *testing.T) {
	cmd := Command()
	for _, name := range []string{"speciesdata", "current_path", "historic_path", "output_path"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %q should exist", name)
	}
	zFlag := cmd.Flags().Lookup("z")
	require.NotNil(t, zFlag)
	assert.Equal(t, "gompertz", zFlag.DefValue)
}
