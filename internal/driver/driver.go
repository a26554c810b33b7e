// Package driver implements C4, the batched MBTiles driver: the
// stage/validate/scan/process/vacuum/publish state machine that owns a
// run end to end. It is grounded on Fast-MBTiler's Download/downloadLayer
// pipeline (task.go) — a single-threaded outer loop dispatching to a
// worker pool per unit of work, checkpointing progress to Redis, logging
// structured fields per step — generalized from "download tiles from a
// remote source" to "rewrite tiles already present in a local archive".
package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/csnight/streetslim/internal/checkpoint"
	"github.com/csnight/streetslim/internal/metrics"
	"github.com/csnight/streetslim/internal/pool"
	"github.com/csnight/streetslim/internal/progress"
)

// defaultBatchSize is spec.md §4.4's B, balancing SQLite overhead amortization,
// in-flight memory, and progress granularity.
const defaultBatchSize = 100

// Config parameterizes one Driver. Zero values fall back to spec.md's
// defaults (B=100, NumCPU workers, the "spatialite" SQL driver name that
// Config.SQLDriverName in SPEC_FULL.md names for production use; tests
// inject "sqlite3" instead since the spatialite extension isn't loaded in
// a bare test binary).
type Config struct {
	Workers       int
	BatchSize     int
	SQLDriverName string
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.SQLDriverName == "" {
		c.SQLDriverName = "spatialite"
	}
	return c
}

// RunSummary is what Process returns on success: the same
// processed/modified/decode_failures triple spec.md §7 requires the
// driver to report, plus wall-clock duration for logging.
type RunSummary struct {
	Processed      int
	Modified       int
	DecodeFailures int
	Duration       time.Duration
}

// Driver runs the MBTiles state machine. It is safe to reuse across
// multiple sequential Process calls; it holds no per-run state itself.
type Driver struct {
	cfg        Config
	pool       *pool.Pool
	checkpoint *checkpoint.Store
	metrics    *metrics.Registry
}

// New builds a Driver. cp and mtr may both be nil: a nil checkpoint store
// makes every checkpoint operation a no-op, and a nil metrics registry
// simply means no Prometheus collectors are updated.
func New(cfg Config, cp *checkpoint.Store, mtr *metrics.Registry) *Driver {
	cfg = cfg.withDefaults()
	return &Driver{
		cfg:        cfg,
		pool:       pool.New(cfg.Workers),
		checkpoint: cp,
		metrics:    mtr,
	}
}

// Process runs Init -> Stage -> Validate -> Scan -> ProcessBatches ->
// Vacuum -> Publish -> Done against inputPath, writing the transformed
// archive to outputPath. runID identifies the run for checkpointing; pass
// "" to have one generated (and therefore never resumed — a fresh run
// every time). sink may be nil, in which case progress is discarded.
func (d *Driver) Process(ctx context.Context, runID, inputPath, outputPath string, keepSet map[string]struct{}, sink progress.Sink) (RunSummary, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if sink == nil {
		sink = progress.Noop{}
	}
	logger := log.WithFields(log.Fields{"run_id": runID, "input": inputPath})
	start := time.Now()

	stagedPath := inputPath + ".temp"

	logger.Info("stage: copying source to working copy")
	if err := copyFile(inputPath, stagedPath); err != nil {
		return RunSummary{}, fmt.Errorf("%w: stage copy: %v", ErrIO, err)
	}

	db, err := sql.Open(d.cfg.SQLDriverName, stagedPath)
	if err != nil {
		os.Remove(stagedPath)
		return RunSummary{}, fmt.Errorf("%w: open staged db: %v", ErrDB, err)
	}

	summary, err := d.run(ctx, logger, runID, db, stagedPath, outputPath, keepSet, sink)
	if err != nil {
		db.Close()
		os.Remove(stagedPath)
		return RunSummary{}, err
	}

	summary.Duration = time.Since(start)
	logger.WithFields(log.Fields{
		"processed":       summary.Processed,
		"modified":        summary.Modified,
		"decode_failures": summary.DecodeFailures,
		"duration":        summary.Duration,
	}).Info("run complete")
	return summary, nil
}

// run implements Validate through Publish. The caller owns closing db and
// removing stagedPath on any error path (Cleanup, spec.md §4.4).
func (d *Driver) run(ctx context.Context, logger *log.Entry, runID string, db *sql.DB, stagedPath, outputPath string, keepSet map[string]struct{}, sink progress.Sink) (RunSummary, error) {
	if err := validate(db); err != nil {
		return RunSummary{}, err
	}

	total, err := scanCount(db)
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: scan: %v", ErrDB, err)
	}
	logger.WithField("total_tiles", total).Info("scan complete")
	sink.Report(0.0)

	state := checkpoint.State{}
	if d.checkpoint != nil {
		if loaded, err := d.checkpoint.Load(runID); err == nil {
			state = loaded
		}
	}

	processed, modified, decodeFailures, err := d.processBatches(ctx, logger, runID, db, total, state, keepSet, sink)
	if err != nil {
		return RunSummary{}, err
	}
	sink.Report(1.0)

	if err := ctx.Err(); err != nil {
		return RunSummary{}, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	logger.Info("vacuum: reclaiming space")
	if _, err := db.Exec("VACUUM"); err != nil {
		return RunSummary{}, fmt.Errorf("%w: vacuum: %v", ErrIO, err)
	}

	if err := db.Close(); err != nil {
		return RunSummary{}, fmt.Errorf("%w: close staged db: %v", ErrDB, err)
	}

	if err := ctx.Err(); err != nil {
		return RunSummary{}, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	logger.WithField("output", outputPath).Info("publish: copying staged file to output")
	if err := copyFile(stagedPath, outputPath); err != nil {
		return RunSummary{}, fmt.Errorf("%w: publish copy: %v", ErrIO, err)
	}
	if err := os.Remove(stagedPath); err != nil {
		return RunSummary{}, fmt.Errorf("%w: remove staged file: %v", ErrIO, err)
	}

	if d.checkpoint != nil {
		_ = d.checkpoint.Clear(runID)
	}

	return RunSummary{Processed: processed, Modified: modified, DecodeFailures: decodeFailures}, nil
}

func validate(db *sql.DB) error {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'tiles'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotAnMBTiles
	}
	if err != nil {
		return fmt.Errorf("%w: validate: %v", ErrDB, err)
	}
	return nil
}

func scanCount(db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// processBatches implements spec.md §4.4's ProcessBatches step: a
// single-threaded loop over LIMIT/OFFSET pages, each dispatched to the
// worker pool and committed in its own transaction. state carries a
// resumed offset from a prior interrupted run (C7); its zero value starts
// at the beginning.
func (d *Driver) processBatches(ctx context.Context, logger *log.Entry, runID string, db *sql.DB, total int, state checkpoint.State, keepSet map[string]struct{}, sink progress.Sink) (processed, modified, decodeFailures int, err error) {
	processed, modified, decodeFailures = state.Processed, state.Modified, state.DecodeFailures
	offset := state.LastOffset

	for offset < total {
		select {
		case <-ctx.Done():
			return processed, modified, decodeFailures, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		batchStart := time.Now()
		items, err := readBatch(db, offset, d.cfg.BatchSize)
		if err != nil {
			return processed, modified, decodeFailures, fmt.Errorf("%w: batch read at offset %d: %v", ErrIO, offset, err)
		}

		outcomes := d.pool.ProcessBatch(items, keepSet)

		var rewritten []pool.Outcome
		batchDecodeFailures := 0
		for _, o := range outcomes {
			processed++
			if o.DecodeFailed {
				decodeFailures++
				batchDecodeFailures++
				if d.checkpoint != nil {
					_ = d.checkpoint.RecordDecodeFailure(runID, o.Key.Zoom, o.Key.Column, o.Key.Row, "decode failed")
				}
				continue
			}
			if o.Rewritten {
				modified++
				rewritten = append(rewritten, o)
			}
		}

		if len(rewritten) > 0 {
			if err := writeBatch(db, rewritten); err != nil {
				return processed, modified, decodeFailures, fmt.Errorf("%w: batch write at offset %d: %v", ErrIO, offset, err)
			}
		}

		offset += len(items)

		if d.metrics != nil {
			d.metrics.TilesProcessed.Add(float64(len(items)))
			d.metrics.TilesModified.Add(float64(len(rewritten)))
			d.metrics.TilesDecodeFailures.Add(float64(batchDecodeFailures))
			d.metrics.BatchDuration.Observe(time.Since(batchStart).Seconds())
		}

		state = checkpoint.State{LastOffset: offset, Processed: processed, Modified: modified, DecodeFailures: decodeFailures}
		if d.checkpoint != nil {
			_ = d.checkpoint.Save(runID, state)
		}

		logger.WithFields(log.Fields{
			"phase": "process_batches", "offset": offset, "batch_rewritten": len(rewritten),
		}).Debug("batch committed")

		if total > 0 {
			sink.Report(float64(processed) / float64(total))
		}
	}

	return processed, modified, decodeFailures, nil
}

func readBatch(db *sql.DB, offset, limit int) ([]pool.Item, error) {
	rows, err := db.Query(
		"SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level, tile_column, tile_row LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []pool.Item
	for rows.Next() {
		var key pool.RowKey
		var blob []byte
		if err := rows.Scan(&key.Zoom, &key.Column, &key.Row, &blob); err != nil {
			return nil, err
		}
		items = append(items, pool.Item{Key: key, Blob: blob})
	}
	return items, rows.Err()
}

func writeBatch(db *sql.DB, outcomes []pool.Outcome) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE tiles SET tile_data = ? WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.Exec(o.NewBlob, o.Key.Zoom, o.Key.Column, o.Key.Row); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
