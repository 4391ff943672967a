package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ziadkadry99/mcporch/internal/walker"
)

// DefaultConcurrency is the number of files scanned in parallel.
const DefaultConcurrency = 4

// ProgressFunc is called after each file, from the worker that finished it.
type ProgressFunc func(done, total int, relPath string)

// ScanItem is the pipeline outcome for one file. Err is set only when the
// file could not be read or the scan was cancelled before it started.
type ScanItem struct {
	File   walker.File `json:"file"`
	Result *Result     `json:"result,omitempty"`
	Err    error       `json:"-"`
}

// Batcher runs files through a Service with bounded parallelism. Each run is
// independent; stages within one run stay sequential.
type Batcher struct {
	service     *Service
	concurrency int
	onProgress  ProgressFunc
}

// NewBatcher creates a Batcher. concurrency below 1 means DefaultConcurrency.
func NewBatcher(service *Service, concurrency int, onProgress ProgressFunc) *Batcher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Batcher{service: service, concurrency: concurrency, onProgress: onProgress}
}

// Process runs every file and returns the items in input order.
func (b *Batcher) Process(ctx context.Context, files []walker.File) []ScanItem {
	items := make([]ScanItem, len(files))
	if len(files) == 0 {
		return items
	}

	sem := make(chan struct{}, b.concurrency)
	var processed int64
	var wg sync.WaitGroup

	report := func(f walker.File) {
		n := atomic.AddInt64(&processed, 1)
		if b.onProgress != nil {
			b.onProgress(int(n), len(files), f.RelPath)
		}
	}

	for i, file := range files {
		items[i].File = file

		select {
		case <-ctx.Done():
			items[i].Err = fmt.Errorf("scan %s: %w", file.RelPath, ctx.Err())
			report(file)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, f walker.File) {
			defer wg.Done()
			defer func() { <-sem }()
			defer report(f)

			content, err := os.ReadFile(f.Path)
			if err != nil {
				items[i].Err = fmt.Errorf("read %s: %w", f.RelPath, err)
				return
			}
			items[i].Result = b.service.Run(ctx, f.Language, string(content))
		}(i, file)
	}

	wg.Wait()
	return items
}
