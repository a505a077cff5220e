package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// relationFixture creates an Authors table with a Name text field and
// three rows, returning the table id, the name field id and the row ids.
func relationFixture(t *testing.T, s *Store) (int64, int64, []int64) {
	t.Helper()
	tbl, err := s.CreateTable("Authors", nil)
	require.NoError(t, err)
	name, err := s.AddField(tbl.ID, "Name", types.FieldTypeText, false, types.FieldOptions{})
	require.NoError(t, err)

	var ids []int64
	for _, n := range []string{"Austen", "Borges", ""} {
		id, err := s.InsertRecord(tbl.ID, map[int64]any{name.ID: n})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return tbl.ID, name.ID, ids
}

func TestListRelationOptions(t *testing.T) {
	s := setupStore(t)
	tableID, nameID, rowIDs := relationFixture(t, s)

	t.Run("labeled by display field", func(t *testing.T) {
		opts, err := s.ListRelationOptions(tableID, nameID, 0)
		require.NoError(t, err)
		require.Len(t, opts, 3)
		assert.Equal(t, rowIDs[2], opts[0].ID, "newest row first")
		assert.Equal(t, "#3", opts[0].Label, "blank display value falls back to the id tag")
		assert.Equal(t, "Borges", opts[1].Label)
		assert.Equal(t, "Austen", opts[2].Label)
	})

	t.Run("no display field", func(t *testing.T) {
		opts, err := s.ListRelationOptions(tableID, 0, 0)
		require.NoError(t, err)
		require.Len(t, opts, 3)
		for _, o := range opts {
			assert.Equal(t, idLabel(o.ID), o.Label)
		}
	})

	t.Run("limit", func(t *testing.T) {
		opts, err := s.ListRelationOptions(tableID, nameID, 2)
		require.NoError(t, err)
		require.Len(t, opts, 2)
		assert.Equal(t, rowIDs[2], opts[0].ID)
	})

	t.Run("unknown target is empty", func(t *testing.T) {
		opts, err := s.ListRelationOptions(999, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, opts)
	})
}

func TestDisplayMap(t *testing.T) {
	s := setupStore(t)
	tableID, nameID, rowIDs := relationFixture(t, s)

	t.Run("labels found rows", func(t *testing.T) {
		m, err := s.DisplayMap(tableID, nameID, rowIDs[:2])
		require.NoError(t, err)
		assert.Equal(t, map[int64]string{
			rowIDs[0]: "Austen",
			rowIDs[1]: "Borges",
		}, m)
	})

	t.Run("missing rows get id tags", func(t *testing.T) {
		m, err := s.DisplayMap(tableID, nameID, []int64{rowIDs[0], 999})
		require.NoError(t, err)
		assert.Equal(t, "Austen", m[rowIDs[0]])
		assert.Equal(t, "#999", m[999])
	})

	t.Run("zero ids are dropped", func(t *testing.T) {
		m, err := s.DisplayMap(tableID, nameID, []int64{0, -1})
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("no display field", func(t *testing.T) {
		m, err := s.DisplayMap(tableID, 0, rowIDs[:1])
		require.NoError(t, err)
		assert.Equal(t, map[int64]string{rowIDs[0]: "#1"}, m)
	})
}
