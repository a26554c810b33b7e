package profile_test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/csnight/streetslim/internal/catalog"
	"github.com/csnight/streetslim/internal/profile"
)

func newTestStore(t *testing.T) *profile.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.db")
	s, err := profile.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newProfile(name string, layers ...string) profile.Profile {
	keep := map[string]struct{}{}
	for _, l := range layers {
		keep[l] = struct{}{}
	}
	return profile.Profile{ID: uuid.New().String(), Name: name, LayersToKeep: keep}
}

func TestInsertGetList(t *testing.T) {
	s := newTestStore(t)

	a := newProfile("Zeta", "streets")
	b := newProfile("alpha", "streets", "land")

	require.NoError(t, s.Insert(a))
	require.NoError(t, s.Insert(b))

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Name, got.Name)
	require.Len(t, got.LayersToKeep, 1)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	// case-insensitive ascending order: alpha before Zeta
	require.Equal(t, "alpha", list[0].Name)
	require.Equal(t, "Zeta", list[1].Name)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("missing")
	require.ErrorIs(t, err, profile.ErrNotFound)
}

func TestInsertNameConflictCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert(newProfile("Offline")))

	err := s.Insert(newProfile("OFFLINE"))
	require.ErrorIs(t, err, profile.ErrNameConflict)
}

func TestUpdateExcludesSelfFromConflictCheck(t *testing.T) {
	s := newTestStore(t)
	p := newProfile("Routing", "streets")
	require.NoError(t, s.Insert(p))

	p.LayersToKeep["land"] = struct{}{}
	require.NoError(t, s.Update(p))

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	require.Len(t, got.LayersToKeep, 2)
}

func TestSetDefaultIsExclusive(t *testing.T) {
	s := newTestStore(t)
	a := newProfile("A", "streets")
	b := newProfile("B", "land")
	require.NoError(t, s.Insert(a))
	require.NoError(t, s.Insert(b))

	require.NoError(t, s.SetDefault(a.ID))
	def, err := s.GetDefault()
	require.NoError(t, err)
	require.Equal(t, a.ID, def.ID)

	require.NoError(t, s.SetDefault(b.ID))
	def, err = s.GetDefault()
	require.NoError(t, err)
	require.Equal(t, b.ID, def.ID)

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	require.False(t, got.IsDefault)
}

func TestDeleteThenEnsureValidDefaultRestoresInvariant(t *testing.T) {
	s := newTestStore(t)
	a := newProfile("Only", "streets")
	a.IsDefault = true
	require.NoError(t, s.Insert(a))

	require.NoError(t, s.Delete(a.ID))

	// Store is now empty; EnsureValidDefault must be a no-op per spec.md.
	require.NoError(t, s.EnsureValidDefault())
	list, err := s.List()
	require.NoError(t, err)
	require.Empty(t, list)
}

// S7 (spec.md §8): after EnsureValidDefault on a non-empty store, exactly
// one profile is default and its keep-set is non-empty.
func TestEnsureValidDefaultSeedsFreshDefault(t *testing.T) {
	s := newTestStore(t)
	other := newProfile("Custom", "streets")
	require.NoError(t, s.Insert(other))

	require.NoError(t, s.EnsureValidDefault())

	def, err := s.GetDefault()
	require.NoError(t, err)
	require.Equal(t, catalog.DefaultProfileName, def.Name)
	require.NotEmpty(t, def.LayersToKeep)

	for name := range catalog.DefaultNotKept {
		_, present := def.LayersToKeep[name]
		require.False(t, present, "default profile must not keep %s", name)
	}
}

func TestEnsureValidDefaultRewritesEmptyKeepSet(t *testing.T) {
	s := newTestStore(t)
	empty := newProfile("Empty")
	empty.IsDefault = true
	require.NoError(t, s.Insert(empty))

	require.NoError(t, s.EnsureValidDefault())

	def, err := s.GetDefault()
	require.NoError(t, err)
	require.NotEmpty(t, def.LayersToKeep)
}
