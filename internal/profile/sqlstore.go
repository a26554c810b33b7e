package profile

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/csnight/streetslim/internal/catalog"
)

// sqlStore is the shared implementation behind SQLiteStore and MySQLStore.
// Both backends persist the same schema contract from spec.md §6
// (id text pk, name text unique, layers_to_keep text comma-separated,
// is_default 0|1); name uniqueness is enforced case-insensitively in
// application code rather than relying on collation, since sqlite and
// mysql default to different case-sensitivity rules.
type sqlStore struct {
	db *sql.DB
}

func openSQLStore(driverName, dsn string) (*sqlStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS profiles (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		layers_to_keep TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &sqlStore{db: db}, nil
}

func (s *sqlStore) Close() error { return s.db.Close() }

func (s *sqlStore) List() ([]Profile, error) {
	rows, err := s.db.Query("SELECT id, name, layers_to_keep, is_default FROM profiles ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Enforce case-insensitive ordering regardless of backend collation.
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *sqlStore) Get(id string) (Profile, error) {
	row := s.db.QueryRow("SELECT id, name, layers_to_keep, is_default FROM profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *sqlStore) GetDefault() (Profile, error) {
	row := s.db.QueryRow("SELECT id, name, layers_to_keep, is_default FROM profiles WHERE is_default = 1")
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *sqlStore) Insert(p Profile) error {
	if err := s.checkNameConflict(p.ID, p.Name); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT INTO profiles (id, name, layers_to_keep, is_default) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, encodeLayers(p.LayersToKeep), boolToInt(p.IsDefault),
	)
	if err != nil {
		return err
	}
	if p.IsDefault {
		return s.SetDefault(p.ID)
	}
	return nil
}

func (s *sqlStore) Update(p Profile) error {
	if err := s.checkNameConflict(p.ID, p.Name); err != nil {
		return err
	}
	res, err := s.db.Exec(
		"UPDATE profiles SET name = ?, layers_to_keep = ? WHERE id = ?",
		p.Name, encodeLayers(p.LayersToKeep), p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if p.IsDefault {
		return s.SetDefault(p.ID)
	}
	return nil
}

func (s *sqlStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) SetDefault(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT id FROM profiles WHERE id = ?", id)
	var found string
	if err := row.Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec("UPDATE profiles SET is_default = 0"); err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE profiles SET is_default = 1 WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// EnsureValidDefault restores the "exactly one default, non-empty
// keep-set" invariant, per spec.md §4.5. Called at startup.
func (s *sqlStore) EnsureValidDefault() error {
	profiles, err := s.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return nil
	}

	def, err := s.GetDefault()
	if err == nil && len(def.LayersToKeep) > 0 {
		return nil
	}

	seed := Profile{
		ID:           catalog.DefaultProfileID,
		Name:         catalog.DefaultProfileName,
		LayersToKeep: catalog.SeedDefaultKeepSet(),
		IsDefault:    true,
	}

	if err == ErrNotFound {
		if existing, getErr := s.Get(seed.ID); getErr == nil {
			existing.LayersToKeep = seed.LayersToKeep
			existing.IsDefault = true
			return s.Update(existing)
		}
		return s.Insert(seed)
	}
	if err != nil {
		return err
	}

	// A default exists but its keep-set is empty; rewrite it in place.
	def.LayersToKeep = seed.LayersToKeep
	return s.Update(def)
}

func (s *sqlStore) checkNameConflict(id, name string) error {
	rows, err := s.db.Query("SELECT id, name FROM profiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	lower := strings.ToLower(name)
	for rows.Next() {
		var otherID, otherName string
		if err := rows.Scan(&otherID, &otherName); err != nil {
			return err
		}
		if otherID != id && strings.ToLower(otherName) == lower {
			return ErrNameConflict
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var (
		id, name, layers string
		isDefault        int
	)
	if err := row.Scan(&id, &name, &layers, &isDefault); err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:           id,
		Name:         name,
		LayersToKeep: decodeLayers(layers),
		IsDefault:    isDefault != 0,
	}, nil
}

func encodeLayers(keep map[string]struct{}) string {
	names := make([]string, 0, len(keep))
	for name := range keep {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func decodeLayers(csv string) map[string]struct{} {
	out := map[string]struct{}{}
	if csv == "" {
		return out
	}
	for _, name := range strings.Split(csv, ",") {
		out[name] = struct{}{}
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
