package raster

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quantifyearth/life/geo"
)

// ProgressFunc is invoked monotonically as stripes of a Save retire
// (§4.4 "Progress callbacks").
type ProgressFunc func(rowsDone, rowsTotal int)

// Evaluator walks an operator graph's resolved area in tiled row-blocks,
// either writing a result (Save) or folding it to a scalar (Sum) (§4.4).
type Evaluator struct {
	blockRows int
	workers   int
	progress  ProgressFunc
}

// EvaluatorOption configures an Evaluator (teacher's functional-options
// idiom, generalized from its OpenOption/RasterizeGeometryOption style).
type EvaluatorOption interface {
	apply(*Evaluator)
}

type evaluatorOptionFunc func(*Evaluator)

func (f evaluatorOptionFunc) apply(e *Evaluator) { f(e) }

// BlockRows overrides the default 512-row tile height.
func BlockRows(n int) EvaluatorOption {
	return evaluatorOptionFunc(func(e *Evaluator) { e.blockRows = n })
}

// Workers overrides the default runtime.NumCPU() stripe-worker count.
func Workers(n int) EvaluatorOption {
	return evaluatorOptionFunc(func(e *Evaluator) { e.workers = n })
}

// Progress registers a callback invoked after each stripe retires.
func Progress(fn ProgressFunc) EvaluatorOption {
	return evaluatorOptionFunc(func(e *Evaluator) { e.progress = fn })
}

// NewEvaluator builds an Evaluator with the default 512-row block size
// and runtime.NumCPU() stripe workers.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{blockRows: 512, workers: runtime.NumCPU()}
	for _, o := range opts {
		o.apply(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.blockRows < 1 {
		e.blockRows = 512
	}
	return e
}

// Resolve negotiates mode across nodes and sets each underlying Layer's
// view window. It must be called before Save or Sum (§4.3 "Readiness").
func (e *Evaluator) Resolve(mode ResolveMode, nodes ...Node) (geo.Area, error) {
	return Resolve(mode, nodes...)
}

func outputSize(area geo.Area, scale geo.PixelScale) (width, height int) {
	absX := absf(scale.XStep)
	absY := absf(scale.YStep)
	width = int((area.Right-area.Left)/absX + 0.5)
	height = int((area.Top-area.Bottom)/absY + 0.5)
	return
}

// Save streams n, already Resolved, into dst. It partitions rows into
// disjoint stripes evaluated concurrently by up to e.workers goroutines
// (§4.4 "Parallel save"); a worker error cancels the others and the
// partial output must be treated as discarded by the caller (§4.4
// "Failure model").
func (e *Evaluator) Save(ctx context.Context, n Node, dst *Writer) (float64, error) {
	scale, ok := n.PixelScale()
	if !ok {
		scale = dst.scale
	}
	width, height := outputSize(n.Area(), scale)

	var total float64
	var mu sync.Mutex
	var rowsDone int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for y := 0; y < height; y += e.blockRows {
		y := y
		h := e.blockRows
		if y+h > height {
			h = height - y
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			tile, err := n.ReadTile(0, y, width, h)
			if err != nil {
				return err
			}
			if err := dst.WriteTile(0, y, tile); err != nil {
				return err
			}
			var stripeSum float64
			for _, v := range tile.Data {
				stripeSum += v
			}
			mu.Lock()
			total += stripeSum
			rowsDone += h
			if e.progress != nil {
				e.progress(rowsDone, height)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// Sum streams n, already Resolved, accumulating a double-precision total
// without materializing an output raster (§4.3 "Reduction", §4.4
// "Sum-mode evaluation never materializes the output raster").
// Evaluation is single-threaded so the result is bit-exact (§5
// "Determinism").
func (e *Evaluator) Sum(ctx context.Context, n Node) (float64, error) {
	scale, ok := n.PixelScale()
	if !ok {
		scale = geo.PixelScale{XStep: 1, YStep: -1}
	}
	width, height := outputSize(n.Area(), scale)

	var total float64
	for y := 0; y < height; y += e.blockRows {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		h := e.blockRows
		if y+h > height {
			h = height - y
		}
		tile, err := n.ReadTile(0, y, width, h)
		if err != nil {
			return 0, err
		}
		for _, v := range tile.Data {
			total += v
		}
	}
	return total, nil
}
