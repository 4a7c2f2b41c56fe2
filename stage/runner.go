package stage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// WorkerFlag and StageFlag are the hidden flags a manager passes when
// re-executing itself as a worker; cli.MaybeRunStageWorker checks for WorkerFlag
// before cobra's normal flag parsing runs and dispatches straight to
// RunWorker if present.
const (
	WorkerFlag = "--stage-worker"
	StageFlag  = "--stage-num"
)

// Runner is a bounded pool of OS-process workers executing the kernel
// registered under Name (§4.6 "Stage runner").
type Runner struct {
	// Name is the registry key a worker subprocess uses to find its
	// Stage1Func/Stage2Func.
	Name string
	// Workers bounds how many stage-1 subprocesses run concurrently.
	Workers int
	// ScratchDir is the per-run directory stage-1 partials are written
	// into; removed on completion, success or failure (§4.6 "Temp
	// files").
	ScratchDir string
}

// Run partitions items round-robin across r.Workers stage-1 subprocesses,
// waits for all to complete, then runs a single stage-2 subprocess that
// merges their partials into outputPath. If any worker exits non-zero,
// the remaining workers are killed and the scratch directory is removed
// before returning the first failure (§4.6 "Cancellation").
func (r *Runner) Run(ctx context.Context, items []WorkItem, outputPath string) error {
	if r.Workers < 1 {
		r.Workers = 1
	}
	if err := os.MkdirAll(r.ScratchDir, 0o755); err != nil {
		return fmt.Errorf("stage: create scratch dir: %w", err)
	}
	defer os.RemoveAll(r.ScratchDir)

	buckets := partition(items, r.Workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	partials := make([]string, 0, len(buckets))
	errCh := make(chan error, len(buckets))
	resultCh := make(chan string, len(buckets))

	running := 0
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		running++
		go func(workerID int, items []WorkItem) {
			partial := filepath.Join(r.ScratchDir, fmt.Sprintf("%d.tif", workerID))
			req := stage1Request{Items: items, PartialPath: partial}
			path, err := r.runSubprocess(ctx, 1, req)
			if err != nil {
				errCh <- err
				return
			}
			resultCh <- path
		}(i, bucket)
	}

	var firstErr error
	for i := 0; i < running; i++ {
		select {
		case err := <-errCh:
			if firstErr == nil {
				firstErr = err
				cancel()
			}
		case path := <-resultCh:
			partials = append(partials, path)
		}
	}
	if firstErr != nil {
		return firstErr
	}

	req := stage2Request{PartialPaths: partials, OutputPath: outputPath}
	if _, err := r.runSubprocess(ctx, 2, req); err != nil {
		return err
	}
	return nil
}

// runSubprocess re-executes the current binary with the hidden worker
// flags, writes req as a single JSON line to its stdin, and reads its
// single JSON result line from stdout. Stderr is inherited so worker logs
// interleave with the manager's own (§4.6 "each worker holds its own
// GDAL state").
func (r *Runner) runSubprocess(ctx context.Context, stageNum int, req any) (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("stage: resolve self executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, self,
		fmt.Sprintf("%s=%s", WorkerFlag, r.Name),
		fmt.Sprintf("%s=%d", StageFlag, stageNum),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("stage: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stage: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("stage: start worker: %w", err)
	}

	enc := json.NewEncoder(stdin)
	if err := enc.Encode(req); err != nil {
		stdin.Close()
		cmd.Wait()
		return "", fmt.Errorf("stage: write worker request: %w", err)
	}
	stdin.Close()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var res workerResult
	if scanner.Scan() {
		if err := json.Unmarshal(scanner.Bytes(), &res); err != nil {
			log.Warn().Err(err).Msg("stage: malformed worker result line")
		}
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		if res.Err != "" {
			return "", fmt.Errorf("stage: worker failed: %s", res.Err)
		}
		return "", fmt.Errorf("stage: worker exited: %w", waitErr)
	}
	if res.Err != "" {
		return "", fmt.Errorf("stage: worker reported error: %s", res.Err)
	}
	return res.Path, nil
}

func partition(items []WorkItem, n int) [][]WorkItem {
	buckets := make([][]WorkItem, n)
	for i, it := range items {
		buckets[i%n] = append(buckets[i%n], it)
	}
	return buckets
}
