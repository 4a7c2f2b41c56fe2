package stage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// stage1Request/stage2Request are what the manager writes to a worker's
// stdin: the full set of work it is responsible for, plus where to write
// its result. One line, one JSON object — there is exactly one request
// per worker invocation, since partitioning happens in the manager, not
// via a shared dynamic queue (§5 "Scheduling").
type stage1Request struct {
	Items       []WorkItem `json:"items"`
	PartialPath string     `json:"partial_path"`
}

type stage2Request struct {
	PartialPaths []string `json:"partial_paths"`
	OutputPath   string   `json:"output_path"`
}

// workerResult is what a worker writes to stdout on completion: either a
// produced path or an error message. The manager treats a non-zero exit
// as failure (§4.6 "Worker crash"); on a zero exit it also treats a
// non-empty error field as failure and takes Path as the produced file.
type workerResult struct {
	Path string `json:"path,omitempty"`
	Err  string `json:"error,omitempty"`
}

// RunWorker is the subprocess entrypoint: reads its one-line JSON request
// from r, invokes the registered stage function under name for the given
// stageNum (1 or 2), and writes a one-line JSON result to w. Returns a
// non-nil error if the stage function itself failed, which the caller
// (main) should translate into a non-zero process exit.
func RunWorker(name string, stageNum int, r io.Reader, w io.Writer) error {
	k, err := lookup(name)
	if err != nil {
		return writeResult(w, workerResult{Err: err.Error()})
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return writeResult(w, workerResult{Err: "stage: empty worker request"})
	}
	line := scanner.Bytes()

	switch stageNum {
	case 1:
		var req stage1Request
		if err := json.Unmarshal(line, &req); err != nil {
			return writeResult(w, workerResult{Err: err.Error()})
		}
		if err := k.stage1(req.Items, req.PartialPath); err != nil {
			writeResult(w, workerResult{Err: err.Error()})
			return err
		}
		return writeResult(w, workerResult{Path: req.PartialPath})
	case 2:
		var req stage2Request
		if err := json.Unmarshal(line, &req); err != nil {
			return writeResult(w, workerResult{Err: err.Error()})
		}
		if err := k.stage2(req.PartialPaths, req.OutputPath); err != nil {
			writeResult(w, workerResult{Err: err.Error()})
			return err
		}
		return writeResult(w, workerResult{Path: req.OutputPath})
	default:
		return writeResult(w, workerResult{Err: fmt.Sprintf("stage: unknown stage number %d", stageNum)})
	}
}

func writeResult(w io.Writer, res workerResult) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Err != "" {
		return fmt.Errorf("stage: %s", res.Err)
	}
	return nil
}
