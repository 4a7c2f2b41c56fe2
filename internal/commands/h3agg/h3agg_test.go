package h3agg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonPrefix(t *testing.T) {
	assert.Equal(t, "res", seasonPrefix("RESIDENT"))
	assert.Equal(t, "non", seasonPrefix("NONBREEDING"))
	assert.Equal(t, "br", seasonPrefix("BR"))
}

func TestDiscoverMatchesSeasonalityFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Seasonality.RESIDENT-100.tif",
		"Seasonality.NONBREEDING-100.tif",
		"ignore.tif",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := discover(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, "100", f.taxonID)
	}
}

func TestParseTaxonID(t *testing.T) {
	id, err := parseTaxonID("1234")
	require.NoError(t, err)
	assert.Equal(t, 1234, id)

	_, err = parseTaxonID("not-a-number")
	require.Error(t, err)
}
