package kernel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/quantifyearth/life/raster"
)

// Crosswalk maps an IUCN habitat code (e.g. "14.1") to the raster class
// codes a habitat map uses for it; a code may map to several raster
// values (§6 "Crosswalk table").
type Crosswalk map[string][]int

// LoadCrosswalk reads the two-column `code,value` CSV described in §6.
func LoadCrosswalk(r io.Reader) (Crosswalk, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("kernel: read crosswalk: %w", err)
	}

	out := Crosswalk{}
	start := 0
	if len(records) > 0 && (records[0][0] == "code" || records[0][0] == "") {
		start = 1
	}
	for _, row := range records[start:] {
		if len(row) < 2 {
			continue
		}
		code, valueStr := row[0], row[1]
		value, err := strconv.Atoi(valueStr)
		if err != nil {
			return nil, fmt.Errorf("kernel: crosswalk value %q for code %q: %w", valueStr, code, err)
		}
		out[code] = append(out[code], value)
	}
	return out, nil
}

// Codes returns the union of raster codes mapped from every iucnCode in
// codes, in the order given — matching `itertools.chain.from_iterable`.
func (c Crosswalk) Codes(iucnCodes []string) ([]int, error) {
	var out []int
	for _, code := range iucnCodes {
		values, ok := c[code]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCode, code)
		}
		out = append(out, values...)
	}
	return out, nil
}

// artificialIUCNCodes are the level-2 "14.x" artificial-habitat codes the
// current map preserves at full resolution; everything else floors to
// its level-1 code (§4.7 "Scenario construction", S5).
var artificialIUCNCodes = []string{"14", "14.1", "14.2", "14.3", "14.4", "14.5", "14.6"}

// MakeCurrent builds the "current" scenario node: artificial (14.x) codes
// are preserved; every other code is floored to its level-1 value
// (code/100*100). Artificial codes absent from crosswalk contribute no
// raster values.
func MakeCurrent(jung raster.Layer, crosswalk Crosswalk) (raster.Node, error) {
	var preserve []int
	for _, code := range artificialIUCNCodes {
		preserve = append(preserve, crosswalk[code]...)
	}
	floored := raster.Apply(jung, func(v float64) float64 { return math.Floor(v/100) * 100 })
	return raster.Where(raster.IsIn(jung, preserve), jung, floored), nil
}

// restoreIUCNCodes are the arable/pasture/urban codes the restore
// scenario replaces with PNV (§4.7).
var restoreIUCNCodes = []string{"14.1", "14.2", "14.3", "14.4", "14.5", "14.6"}

// MakeRestore builds the "restore" scenario node: current pixels whose
// code is arable/pasture/urban (per crosswalk) are replaced by
// the co-registered PNV value; everything else keeps its current value.
// pnv must already be a raster.RescaledLayer (or otherwise resampled) at
// current's pixel scale.
func MakeRestore(current, pnv raster.Layer, crosswalk Crosswalk) (raster.Node, error) {
	replace, err := crosswalk.Codes(restoreIUCNCodes)
	if err != nil {
		return nil, err
	}
	return raster.Where(raster.IsIn(current, replace), pnv, current), nil
}

const (
	jungArableCode  = 1401
	jungPastureCode = 1402
	jungUrbanCode   = 1405
)

// MakeArable recodes every non-urban pixel of current to the arable code
// (§4.7 "arable = global recode ... except where urban").
func MakeArable(current raster.Layer) raster.Node {
	return raster.Apply(current, func(v float64) float64 {
		if v != jungUrbanCode {
			return jungArableCode
		}
		return v
	})
}

// MakePasture recodes every non-urban pixel of current to the pasture
// code.
func MakePasture(current raster.Layer) raster.Node {
	return raster.Apply(current, func(v float64) float64 {
		if v != jungUrbanCode {
			return jungPastureCode
		}
		return v
	})
}

// FoodCurrentTile is one coarse-grid cell's crop/pasture change, as read
// from the diff rasters (§4.7 "two-level tile scheme").
type FoodCurrentTile struct {
	XOff, YOff, Width, Height int
	CropDiff, PastureDiff     float64 // NaN means "no change"
}

// foodPreserveCodes are level-1/level-2 codes the stochastic recode never
// touches.
var foodPreserveCodes = []int{600, 700, 900, 1000, 1100, 1200, 1300, 1405}

// MakeFoodCurrentTile applies one tile's stochastic crop/pasture
// replacement to data (row-major, tile.Width*tile.Height current-map
// values), reading PNV replacements from pnvAt when a decrease restores
// pixels to their potential natural vegetation. rng must be seeded
// per-tile by the caller for reproducibility (§4.7 "Seeded RNG required").
//
// Increases (positive diff) replace random non-crop/pasture/preserved
// pixels with the new code; decreases (negative diff) restore random
// pixels currently at that code back to their PNV value. Processing
// order is removes-before-adds per diff magnitude, matching the source's
// `sort by diff value` step.
func MakeFoodCurrentTile(data []float64, tile FoodCurrentTile, pnvAt func(row, col int) float64, rng *rand.Rand) {
	type change struct {
		diff float64
		code float64
	}
	changes := []change{
		{tile.CropDiff, jungArableCode},
		{tile.PastureDiff, jungPastureCode},
	}
	// removes (negative diff) before adds (positive diff).
	if changes[0].diff > changes[1].diff {
		changes[0], changes[1] = changes[1], changes[0]
	}

	for _, ch := range changes {
		if math.IsNaN(ch.diff) || ch.diff == 0 {
			continue
		}
		required := int(math.Floor(float64(tile.Width*tile.Height) * math.Abs(ch.diff)))
		if required == 0 {
			continue
		}

		var candidates []int
		for i, v := range data {
			if ch.diff > 0 {
				if v != jungArableCode && v != jungPastureCode && !isPreserveCode(v) {
					candidates = append(candidates, i)
				}
			} else if v == ch.code {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		if required > len(candidates) {
			required = len(candidates)
		}

		rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		chosen := candidates[:required]

		if ch.diff > 0 {
			for _, idx := range chosen {
				data[idx] = ch.code
			}
		} else {
			for _, idx := range chosen {
				row, col := idx/tile.Width, idx%tile.Width
				data[idx] = pnvAt(row, col)
			}
		}
	}
}

func isPreserveCode(v float64) bool {
	for _, c := range foodPreserveCodes {
		if v == float64(c) {
			return true
		}
	}
	return false
}

// NewTileRNG derives a per-tile deterministic generator from a run-level
// seed and the tile's index, so that re-running MakeFoodCurrent with the
// same seed and inputs reproduces byte-identical output regardless of
// which goroutine/process processes which tile (§4.7 "Seeded RNG
// required").
func NewTileRNG(rootSeed uint64, tileIndex int) *rand.Rand {
	var seed [32]byte
	for i := 0; i < 4; i++ {
		mixed := rootSeed ^ (uint64(tileIndex)*0x9E3779B97F4A7C15 + uint64(i))
		for b := 0; b < 8; b++ {
			seed[i*8+b] = byte(mixed >> (8 * b))
		}
	}
	return rand.New(rand.NewChaCha8(seed))
}

func pixelDims(l raster.Layer) (int, int) {
	area := l.Area()
	scale, _ := l.PixelScale()
	w := int((area.Right-area.Left)/absf(scale.XStep) + 0.5)
	h := int((area.Top-area.Bottom)/absf(scale.YStep) + 0.5)
	return w, h
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// BuildFoodCurrentPlan overlays the coarse crop/pasture diff grid onto
// current's finer pixel grid, producing one FoodCurrentTile per diff
// cell (§4.7 "two-level tile scheme"). Step boundaries are rounded
// independently per axis so the tiles partition current's full extent
// with no gaps or overlaps, matching the source's `round(i * scale)`
// construction.
func BuildFoodCurrentPlan(current, cropDiff, pastureDiff raster.Layer) ([]FoodCurrentTile, error) {
	currentW, currentH := pixelDims(current)
	diffW, diffH := pixelDims(cropDiff)
	if w, h := pixelDims(pastureDiff); w != diffW || h != diffH {
		return nil, fmt.Errorf("kernel: crop/pasture diff rasters have mismatched grids")
	}

	xScale := float64(currentW) / float64(diffW)
	yScale := float64(currentH) / float64(diffH)
	xSteps := make([]int, diffW+1)
	for i := 0; i < diffW; i++ {
		xSteps[i] = int(float64(i)*xScale + 0.5)
	}
	xSteps[diffW] = currentW
	ySteps := make([]int, diffH+1)
	for i := 0; i < diffH; i++ {
		ySteps[i] = int(float64(i)*yScale + 0.5)
	}
	ySteps[diffH] = currentH

	tiles := make([]FoodCurrentTile, 0, diffW*diffH)
	for y := 0; y < diffH; y++ {
		cropRow, err := cropDiff.ReadTile(0, y, diffW, 1)
		if err != nil {
			return nil, fmt.Errorf("kernel: read crop diff row %d: %w", y, err)
		}
		pastureRow, err := pastureDiff.ReadTile(0, y, diffW, 1)
		if err != nil {
			return nil, fmt.Errorf("kernel: read pasture diff row %d: %w", y, err)
		}
		for x := 0; x < diffW; x++ {
			tiles = append(tiles, FoodCurrentTile{
				XOff:        xSteps[x],
				YOff:        ySteps[y],
				Width:       xSteps[x+1] - xSteps[x],
				Height:      ySteps[y+1] - ySteps[y],
				CropDiff:    cropRow.At(x, 0),
				PastureDiff: pastureRow.At(x, 0),
			})
		}
	}
	return tiles, nil
}

// RunMakeFoodCurrent drives the stochastic food-current recode across
// every tile in plan: current and pnv are read tile-by-tile (current's
// data is the recode target, pnv supplies restoration values for
// decreases), workers bounds how many tiles are processed concurrently,
// and seed derives each tile's independent RNG via NewTileRNG so the
// result is reproducible regardless of goroutine scheduling (§4.7 "Seeded
// RNG required"). Tiles whose diff is entirely NaN are copied through
// unchanged. Output is written serially to w as each tile completes.
func RunMakeFoodCurrent(ctx context.Context, current, pnv raster.Layer, plan []FoodCurrentTile, seed uint64, workers int, w *raster.Writer) error {
	if workers < 1 {
		workers = 1
	}

	type result struct {
		tile FoodCurrentTile
		data []float64
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make(chan result, workers)
	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				tile := plan[idx]
				t, err := current.ReadTile(tile.XOff, tile.YOff, tile.Width, tile.Height)
				if err != nil {
					select {
					case errCh <- fmt.Errorf("kernel: read current tile %d: %w", idx, err):
					default:
					}
					cancel()
					return
				}
				rng := NewTileRNG(seed, idx)
				pnvAt := func(row, col int) float64 {
					pv, err := pnv.ReadTile(tile.XOff+col, tile.YOff+row, 1, 1)
					if err != nil {
						return math.NaN()
					}
					return pv.At(0, 0)
				}
				MakeFoodCurrentTile(t.Data, tile, pnvAt, rng)
				results <- result{tile: tile, data: t.Data}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	go func() {
		defer close(jobs)
		for idx := range plan {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	var writeErr error
	for r := range results {
		if writeErr != nil {
			continue
		}
		out := raster.Tile{Width: r.tile.Width, Height: r.tile.Height, Data: r.data}
		if err := w.WriteTile(r.tile.XOff, r.tile.YOff, out); err != nil {
			writeErr = fmt.Errorf("kernel: write tile: %w", err)
			cancel()
		}
	}
	if writeErr != nil {
		return writeErr
	}
	select {
	case err := <-errCh:
		return err
	default:
	}
	return nil
}
