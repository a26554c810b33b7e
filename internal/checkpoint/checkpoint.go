// Package checkpoint implements C7, an ambient supplement to spec.md: a
// Redis-backed run cursor and decode-failure ledger, grounded on
// Fast-MBTiler's redis.go (getCursor/saveCursor/errToRedis/retry). The
// MBTiles driver's own batch loop is single-run and short-lived compared
// to the teacher's multi-day tile downloads, but the same idiom — persist
// "how far did we get" so a crash doesn't force a full re-scan — applies
// directly to a batch-offset cursor over the tiles table.
package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

// State is the resumable progress of one driver run.
type State struct {
	LastOffset      int `json:"last_offset"`
	Processed       int `json:"processed"`
	Modified        int `json:"modified"`
	DecodeFailures  int `json:"decode_failures"`
}

// Store persists State and per-tile decode failures for a run, keyed by
// run ID, in Redis.
type Store struct {
	pool *redis.Pool
}

// NewPool builds a redis.Pool with the same settings Fast-MBTiler's
// NewTask used for its download job bookkeeping.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     16,
		MaxActive:   32,
		IdleTimeout: 120,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
	}
}

// New wraps an existing pool. Passing a nil pool is valid: every method
// becomes a no-op, so the driver can treat checkpointing as always-on
// optional infrastructure.
func New(pool *redis.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) conn() (redis.Conn, bool) {
	if s == nil || s.pool == nil {
		return nil, false
	}
	return s.pool.Get(), true
}

func cursorKey(runID string) string    { return "streetslim:cursor:" + runID }
func failuresKey(runID string) string  { return "streetslim:decode_failures:" + runID }

// Load returns the last saved State for runID, or the zero State if none
// exists (a fresh run starts at offset 0).
func (s *Store) Load(runID string) (State, error) {
	conn, ok := s.conn()
	if !ok {
		return State{}, nil
	}
	defer conn.Close()

	raw, err := redis.String(conn.Do("GET", cursorKey(runID)))
	if err == redis.ErrNil {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Save persists State for runID. A nil-pooled Store silently does nothing.
func (s *Store) Save(runID string, st State) error {
	conn, ok := s.conn()
	if !ok {
		return nil
	}
	defer conn.Close()

	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = conn.Do("SET", cursorKey(runID), raw)
	return err
}

// Clear removes the cursor and decode-failure ledger for runID. The driver
// calls it once a run completes successfully, so a later run with the same
// ID starts clean; a failed or cancelled run keeps its cursor and ledger.
func (s *Store) Clear(runID string) error {
	conn, ok := s.conn()
	if !ok {
		return nil
	}
	defer conn.Close()

	_, err1 := conn.Do("DEL", cursorKey(runID))
	_, err2 := conn.Do("DEL", failuresKey(runID))
	if err1 != nil {
		return err1
	}
	return err2
}

// RecordDecodeFailure appends a per-tile decode failure to runID's ledger,
// the same "hash of tile key -> reason" shape as the teacher's fail_list.
func (s *Store) RecordDecodeFailure(runID string, zoom, col, row int, reason string) error {
	conn, ok := s.conn()
	if !ok {
		return nil
	}
	defer conn.Close()

	key := fmt.Sprintf("%d/%d/%d", zoom, col, row)
	_, err := conn.Do("HSET", failuresKey(runID), key, reason)
	return err
}

// DecodeFailures returns the recorded tile-key -> reason ledger for runID.
func (s *Store) DecodeFailures(runID string) (map[string]string, error) {
	conn, ok := s.conn()
	if !ok {
		return nil, nil
	}
	defer conn.Close()

	return redis.StringMap(conn.Do("HGETALL", failuresKey(runID)))
}
