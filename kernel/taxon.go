package kernel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
)

// TaxonRecord is one species/seasonality's AoH inputs, as yielded by the
// IUCN batch/DB ingestion collaborator named in §1 ("out of scope,
// specified only by interface"). TaxonID+Seasonality is the lookup key
// aohcalc.py uses against a pre-fetched batch file.
type TaxonRecord struct {
	TaxonID        int     `json:"taxon_id"`
	Seasonality    string  `json:"seasonality"`
	HabitatCodes   []int   `json:"habitat_codes"`
	ElevationLower float64 `json:"elevation_lower"`
	ElevationUpper float64 `json:"elevation_upper"`
	RangeFilter    string  `json:"range_filter"` // OGR SQL WHERE clause against the range vector source
}

// Batch is a loaded iucn_batch file: species records keyed by
// "<taxonID>/<seasonality>".
type Batch map[string]TaxonRecord

func batchKey(taxonID int, seasonality string) string {
	return fmt.Sprintf("%d/%s", taxonID, seasonality)
}

// LoadBatch reads a pre-fetched IUCN batch file: a JSON array of
// TaxonRecord, as an experiment's "iucn_batch" config entry names. This
// is the engine's concrete stand-in for the live IUCN Red List API
// collaborator, which spec §1 places out of scope.
func LoadBatch(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kernel: read batch %s: %w", path, err)
	}
	var records []TaxonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("kernel: parse batch %s: %w", path, err)
	}
	out := make(Batch, len(records))
	for _, r := range records {
		out[batchKey(r.TaxonID, r.Seasonality)] = r
	}
	return out, nil
}

// Lookup finds taxonID's record for seasonality.
func (b Batch) Lookup(taxonID int, seasonality string) (TaxonRecord, error) {
	rec, ok := b[batchKey(taxonID, seasonality)]
	if !ok {
		return TaxonRecord{}, fmt.Errorf("kernel: no batch record for taxon %d/%s", taxonID, seasonality)
	}
	return rec, nil
}

// SpeciesDataRecord is one row read from a per-species-run vector file
// (GeoPackage/Shapefile/GeoJSON carrying "id_no"/"season" attribute
// columns), the format `global_code_residents_pixel.py` reads via
// geopandas for a single ΔP invocation.
type SpeciesDataRecord struct {
	TaxonID int
	Season  string
}

// ReadSpeciesData opens path as a vector source and returns its first
// feature's id_no/season fields (§6 "deltap --speciesdata FILE").
func ReadSpeciesData(path string) (SpeciesDataRecord, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return SpeciesDataRecord{}, fmt.Errorf("kernel: open speciesdata %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return SpeciesDataRecord{}, fmt.Errorf("kernel: speciesdata %s has no layers", path)
	}
	layers[0].ResetReading()
	feat := layers[0].NextFeature()
	if feat == nil {
		return SpeciesDataRecord{}, fmt.Errorf("kernel: speciesdata %s has no features", path)
	}
	defer feat.Close()

	fields := feat.Fields()
	return SpeciesDataRecord{
		TaxonID: int(fields["id_no"].Int()),
		Season:  fields["season"].String(),
	}, nil
}
