package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// h3ParquetSchema is the two-column {cell, area} table h3calculate.py
// writes per species/season.
var h3ParquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "cell", Type: arrow.BinaryTypes.String},
	{Name: "area", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// RunMetadata is stamped onto every h3agg parquet output's schema
// metadata, mirroring h3calculate.py's `replace_schema_metadata`
// provenance blob.
type RunMetadata struct {
	Species   string  `json:"species"`
	Source    string  `json:"source"`
	Timestamp float64 `json:"timestamp"`
	Host      string  `json:"host"`
	Commit    string  `json:"commit"`
}

// GitCommit returns the current checkout's commit hash, with a trailing
// "*" if the tree is dirty, or "unknown" if git isn't available — the
// same fallback h3calculate.py's COMMIT constant uses.
func GitCommit() string {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	commit := strings.TrimSpace(string(out))
	if diff, err := exec.Command("git", "diff", "-q").Output(); err == nil && len(diff) != 0 {
		commit += "*"
	}
	return commit
}

// WriteH3Parquet writes results as a gzip-compressed parquet file at
// path, with meta encoded as JSON into the "experiment" schema metadata
// key (§6 "h3agg output").
func WriteH3Parquet(path string, results []H3Result, meta RunMetadata) error {
	meta.Timestamp = float64(time.Now().UnixNano()) / 1e9
	blob, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("kernel: marshal h3agg metadata: %w", err)
	}
	schema := arrow.NewSchema(h3ParquetSchema.Fields(), arrow.NewMetadata([]string{"experiment"}, []string{string(blob)}))

	pool := memory.NewGoAllocator()
	bldr := array.NewRecordBuilder(pool, schema)
	defer bldr.Release()

	cellBldr := bldr.Field(0).(*array.StringBuilder)
	areaBldr := bldr.Field(1).(*array.Float64Builder)
	for _, r := range results {
		cellBldr.Append(r.Cell.String())
		areaBldr.Append(r.Value)
	}
	record := bldr.NewRecord()
	defer record.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("kernel: create %s: %w", path, err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip))
	writer, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("kernel: new parquet writer for %s: %w", path, err)
	}
	if err := writer.WriteBuffered(record); err != nil {
		writer.Close()
		return fmt.Errorf("kernel: write %s: %w", path, err)
	}
	return writer.Close()
}
