package pipeline

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/source"
)

// LoadResult holds the output of a bulk document import.
type LoadResult struct {
	Plans       []*model.Snapshot
	TotalFiles  int
	ParsedFiles int
	FileErrors  []error
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses every plan document under dir.
// It uses a bounded worker pool for parallel parsing. Each parsed plan has
// its schedule normalized to the project duration and clamped.
func Load(dir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors = append(result.FileErrors, pr.Err)
			continue
		}
		result.ParsedFiles++
		Prepare(pr.Snapshot)
		result.Plans = append(result.Plans, pr.Snapshot)
	}

	return result, nil
}

// LoadFile parses a single plan document.
func LoadFile(path string) (*model.Snapshot, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pr := source.ParseFile(source.DiscoveredFile{Path: path, Name: name})
	if pr.Err != nil {
		return nil, pr.Err
	}
	Prepare(pr.Snapshot)
	return pr.Snapshot, nil
}

// Prepare brings an externally loaded snapshot in line with the ledger
// rules: months 1..duration only, and no category over-distributed. A plan
// without an execution period keeps no schedule.
func Prepare(s *model.Snapshot) {
	normalizeSchedule(s, s.Duration())
	Reclamp(s)
}
