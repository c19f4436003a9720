package lookup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/minsketch/model"
)

var volumeTable = SQLiteConfig{Table: "volumes", KeyColumn: "idx", ValueColumn: "htid"}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lookup.db")

	want := Map{1: "mdp.39015", 2: "uc1.b3", 10: "nyp.334"}
	require.NoError(t, WriteSQLite(ctx, path, volumeTable, want))

	s, err := OpenSQLite(ctx, path, volumeTable)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Lookup(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nyp.334", v)

	_, ok, err = s.Lookup(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	id, ok := s.DocumentID(model.DocumentKey(2))
	require.True(t, ok)
	assert.Equal(t, "uc1.b3", id)

	tok, ok := s.Token(1)
	require.True(t, ok)
	assert.Equal(t, "mdp.39015", tok)
	require.NoError(t, s.Err())

	all, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, all)
}

func TestSQLite_InvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lookup.db")

	bad := SQLiteConfig{Table: `volumes"; DROP TABLE x; --`, KeyColumn: "k", ValueColumn: "v"}
	assert.ErrorIs(t, WriteSQLite(ctx, path, bad, Map{}), ErrInvalidIdentifier)

	_, err := OpenSQLite(ctx, path, bad)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestSQLite_MissingTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lookup.db")
	require.NoError(t, WriteSQLite(ctx, path, volumeTable, Map{1: "a"}))

	_, err := OpenSQLite(ctx, path, SQLiteConfig{Table: "other", KeyColumn: "k", ValueColumn: "v"})
	assert.Error(t, err)
}
