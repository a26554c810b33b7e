// Package pool implements the worker pool spec.md calls C3: bounded,
// CPU-bound parallel decode/transform of one batch of tile payloads at a
// time. It holds no state across batches and shares nothing mutable
// between workers beyond a read-only keep-set.
package pool

import (
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/csnight/streetslim/internal/mvt"
)

// RowKey identifies a tile record by its MBTiles primary key.
type RowKey struct {
	Zoom   int
	Column int
	Row    int
}

// Item is one tile payload to process, keyed by its row.
type Item struct {
	Key  RowKey
	Blob []byte
}

// Outcome is the result of processing one Item.
type Outcome struct {
	Key           RowKey
	Rewritten     bool
	NewBlob       []byte
	DecodeFailed  bool
}

// Pool runs C1 (decode/encode) and C2 (transform) across a batch of items
// with a fixed worker count, sized to the host's usable cores unless
// overridden.
type Pool struct {
	Workers int
}

// New creates a Pool. workers <= 0 defaults to runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{Workers: workers}
}

// ProcessBatch decodes, transforms, and (if modified) re-encodes every item
// in batch against keepSet, in parallel across p.Workers goroutines.
// Ordering of the returned slice is irrelevant to correctness — callers
// re-correlate by RowKey. A per-tile decode/transform failure is never
// fatal: it yields an Outcome with DecodeFailed=true and Rewritten=false,
// per spec.md §4.3's failure policy.
func (p *Pool) ProcessBatch(batch []Item, keepSet map[string]struct{}) []Outcome {
	results := make([]Outcome, len(batch))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}
	if workers == 0 {
		return results
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = processOne(batch[i], keepSet)
			}
		}()
	}

	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func processOne(item Item, keepSet map[string]struct{}) Outcome {
	tile, err := mvt.Decode(item.Blob)
	if err != nil {
		log.WithFields(log.Fields{
			"zoom": item.Key.Zoom, "col": item.Key.Column, "row": item.Key.Row,
		}).Warnf("tile decode failed, leaving unchanged: %v", err)
		return Outcome{Key: item.Key, DecodeFailed: true}
	}

	_, modified := mvt.Transform(tile, keepSet)
	if !modified {
		return Outcome{Key: item.Key}
	}

	return Outcome{Key: item.Key, Rewritten: true, NewBlob: mvt.Encode(tile)}
}
