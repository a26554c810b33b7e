package pool_test

import (
	"testing"

	"github.com/csnight/streetslim/internal/mvt"
	"github.com/csnight/streetslim/internal/pool"
)

func encodeSimple(name string) []byte {
	return mvt.Encode(&mvt.Tile{Layers: []mvt.Layer{{Name: name, HasVersion: true, Version: 2, HasExtent: true, Extent: 4096}}})
}

func TestProcessBatchCorrelatesResultsByKey(t *testing.T) {
	batch := []pool.Item{
		{Key: pool.RowKey{Zoom: 1, Column: 0, Row: 0}, Blob: encodeSimple("buildings")},
		{Key: pool.RowKey{Zoom: 1, Column: 0, Row: 1}, Blob: encodeSimple("streets")},
		{Key: pool.RowKey{Zoom: 1, Column: 1, Row: 0}, Blob: []byte{}},              // empty -> decode failure
		{Key: pool.RowKey{Zoom: 1, Column: 1, Row: 1}, Blob: []byte{0xDE, 0xAD}},    // corrupt -> decode failure
	}

	p := pool.New(4)
	results := p.ProcessBatch(batch, map[string]struct{}{"streets": {}})

	byKey := make(map[pool.RowKey]pool.Outcome, len(results))
	for _, r := range results {
		byKey[r.Key] = r
	}

	if len(byKey) != len(batch) {
		t.Fatalf("expected %d distinct results, got %d", len(batch), len(byKey))
	}

	if !byKey[pool.RowKey{Zoom: 1, Column: 0, Row: 0}].Rewritten {
		t.Fatal("expected buildings tile to be rewritten (layer dropped)")
	}
	if byKey[pool.RowKey{Zoom: 1, Column: 0, Row: 1}].Rewritten {
		t.Fatal("expected streets-only tile with nothing to filter to be unchanged")
	}
	if !byKey[pool.RowKey{Zoom: 1, Column: 1, Row: 0}].DecodeFailed {
		t.Fatal("expected empty blob to be a non-fatal decode failure")
	}
	if !byKey[pool.RowKey{Zoom: 1, Column: 1, Row: 1}].DecodeFailed {
		t.Fatal("expected corrupt blob to be a non-fatal decode failure")
	}
}

func TestProcessBatchEmptyBatch(t *testing.T) {
	p := pool.New(4)
	results := p.ProcessBatch(nil, map[string]struct{}{})
	if len(results) != 0 {
		t.Fatalf("expected no results for empty batch, got %d", len(results))
	}
}

func TestNewDefaultsWorkerCount(t *testing.T) {
	p := pool.New(0)
	if p.Workers <= 0 {
		t.Fatalf("expected positive default worker count, got %d", p.Workers)
	}
}
