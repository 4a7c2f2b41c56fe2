package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCrosswalkReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crosswalk.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,value\n14.1,1401\n"), 0o644))

	cw, err := loadCrosswalk(path)
	require.NoError(t, err)

	values, err := cw.Codes([]string{"14.1"})
	require.NoError(t, err)
	assert.Equal(t, []int{1401}, values)
}

func TestLoadCrosswalkMissingFileErrors(t *testing.T) {
	_, err := loadCrosswalk(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestCommandWiresAllFiveSubcommands(t *testing.T) {
	cmd := Command()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"make-current", "make-restore", "make-arable", "make-pasture", "make-food-current"} {
		assert.True(t, names[want], "expected subcommand %q", want)
	}
}

func TestMakeFoodCurrentCommandRequiredFlags(t *testing.T) {
	cmd := makeFoodCurrentCommand()
	for _, name := range []string{"current_lvl1", "pnv", "crop_diff", "pasture_diff", "seed", "output"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %q should exist", name)
	}
	jobsFlag := cmd.Flags().Lookup("jobs")
	require.NotNil(t, jobsFlag)
	assert.Equal(t, "1", jobsFlag.DefValue)
}
