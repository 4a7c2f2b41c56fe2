package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/quantifyearth/life/stage"
)

// aohFileRE matches the persisted AoH/ΔP naming convention from §6:
// "{taxid}_{SEASON}.tif".
var aohFileRE = regexp.MustCompile(`^(\d+)_[A-Za-z]+\.tif$`)

// DiscoverAoHWorkItems scans dir for "{taxid}_{SEASON}.tif" files and
// groups them into one stage.WorkItem per taxid, keyed by the taxid
// string, so richness/endemism can OR/combine a species' seasons
// together regardless of how many seasonality files it has.
func DiscoverAoHWorkItems(dir string) ([]stage.WorkItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("kernel: read %s: %w", dir, err)
	}

	bySpecies := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := aohFileRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		taxid := m[1]
		bySpecies[taxid] = append(bySpecies[taxid], filepath.Join(dir, e.Name()))
	}

	keys := make([]string, 0, len(bySpecies))
	for k := range bySpecies {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]stage.WorkItem, 0, len(keys))
	for _, k := range keys {
		paths := bySpecies[k]
		sort.Strings(paths)
		items = append(items, stage.WorkItem{Key: k, Paths: paths})
	}
	return items, nil
}
