package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

// setupSession opens a store in a temp dir, creates a Tasks table with one
// field per common type, and opens a session on it.
func setupSession(t *testing.T) (*Session, *store.Store, map[string]int64) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tbl, err := st.CreateTable("Tasks", nil)
	require.NoError(t, err)

	fids := make(map[string]int64)
	for _, fd := range []struct {
		name  string
		ftype string
	}{
		{"Title", types.FieldTypeText},
		{"Hours", types.FieldTypeNumber},
		{"Done", types.FieldTypeBool},
		{"Due", types.FieldTypeDate},
	} {
		f, err := st.AddField(tbl.ID, fd.name, fd.ftype, false, types.FieldOptions{})
		require.NoError(t, err)
		fids[fd.name] = f.ID
	}

	sess, err := Open(st, tbl.ID, types.Config{})
	require.NoError(t, err)
	return sess, st, fids
}

func TestOpenSession(t *testing.T) {
	sess, st, _ := setupSession(t)

	assert.Equal(t, "Tasks", sess.Table().Name)
	assert.Len(t, sess.Fields(), 4)
	assert.Positive(t, sess.CurrentViewID())
	assert.False(t, sess.Dirty())

	t.Run("unknown table", func(t *testing.T) {
		_, err := Open(st, 999, types.Config{})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestAddRecordNormalizesValues(t *testing.T) {
	sess, st, fids := setupSession(t)

	id, err := sess.AddRecord(map[int64]any{
		fids["Title"]: "  padded  ",
		fids["Hours"]: "12,5",
		fids["Done"]:  "yes",
		999:           "belongs to nothing",
	})
	require.NoError(t, err)

	rec, err := st.GetRecord(sess.Table().ID, id)
	require.NoError(t, err)
	assert.Equal(t, "padded", rec.Values[fids["Title"]])
	assert.Equal(t, 12.5, rec.Values[fids["Hours"]])
	assert.Equal(t, int64(1), rec.Values[fids["Done"]])

	t.Run("nil values become type zeros", func(t *testing.T) {
		id, err := sess.AddRecord(map[int64]any{fids["Title"]: nil, fids["Hours"]: nil, fids["Done"]: nil})
		require.NoError(t, err)
		rec, err := st.GetRecord(sess.Table().ID, id)
		require.NoError(t, err)
		assert.Equal(t, "", rec.Values[fids["Title"]])
		assert.Equal(t, float64(0), rec.Values[fids["Hours"]])
		assert.Equal(t, int64(0), rec.Values[fids["Done"]])
	})

	t.Run("unparseable number", func(t *testing.T) {
		_, err := sess.AddRecord(map[int64]any{fids["Hours"]: "a lot"})
		assert.ErrorIs(t, err, types.ErrInvalidValue)
	})
}

func TestUndoRedoAdd(t *testing.T) {
	sess, st, fids := setupSession(t)
	tableID := sess.Table().ID

	id, err := sess.AddRecord(map[int64]any{fids["Title"]: "ephemeral"})
	require.NoError(t, err)
	original, err := st.GetRecord(tableID, id)
	require.NoError(t, err)

	require.NoError(t, sess.Undo())
	_, err = st.GetRecord(tableID, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Cross a timestamp-resolution boundary so a replay that stamped the
	// row anew would be visible.
	time.Sleep(1100 * time.Millisecond)

	require.NoError(t, sess.Redo())
	restored, err := st.GetRecord(tableID, id)
	require.NoError(t, err)
	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.CreatedAt, restored.CreatedAt)
	assert.Equal(t, original.UpdatedAt, restored.UpdatedAt)
	assert.Equal(t, "ephemeral", restored.Values[fids["Title"]])
}

func TestUndoRedoEdit(t *testing.T) {
	sess, st, fids := setupSession(t)
	tableID := sess.Table().ID

	id, err := sess.AddRecord(map[int64]any{fids["Title"]: "draft", fids["Hours"]: 1.0})
	require.NoError(t, err)
	require.NoError(t, sess.UpdateRecord(id, map[int64]any{fids["Title"]: "final"}))

	require.NoError(t, sess.Undo())
	rec, err := st.GetRecord(tableID, id)
	require.NoError(t, err)
	assert.Equal(t, "draft", rec.Values[fids["Title"]])
	assert.Equal(t, 1.0, rec.Values[fids["Hours"]], "untouched values survive the revert")

	require.NoError(t, sess.Redo())
	rec, err = st.GetRecord(tableID, id)
	require.NoError(t, err)
	assert.Equal(t, "final", rec.Values[fids["Title"]])

	t.Run("empty edit records nothing", func(t *testing.T) {
		n := sess.History().Len()
		require.NoError(t, sess.UpdateRecord(id, nil))
		require.NoError(t, sess.UpdateRecord(id, map[int64]any{999: "stale"}))
		assert.Equal(t, n, sess.History().Len())
	})
}

func TestUndoDeleteRestoresRow(t *testing.T) {
	sess, st, fids := setupSession(t)
	tableID := sess.Table().ID

	created := "2024-03-01T08:00:00Z"
	updated := "2024-03-05T17:30:00Z"
	require.NoError(t, st.InsertRecordWithID(tableID, 7,
		map[int64]any{fids["Title"]: "keeper", fids["Hours"]: 3.5}, created, updated))

	require.NoError(t, sess.DeleteRecord(7))
	_, err := st.GetRecord(tableID, 7)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, sess.Undo())
	rec, err := st.GetRecord(tableID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, updated, rec.UpdatedAt)
	assert.Equal(t, "keeper", rec.Values[fids["Title"]])
	assert.Equal(t, 3.5, rec.Values[fids["Hours"]])

	require.NoError(t, sess.Redo())
	_, err = st.GetRecord(tableID, 7)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteUnknownRecord(t *testing.T) {
	sess, _, _ := setupSession(t)
	err := sess.DeleteRecord(999)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.False(t, sess.History().CanUndo(), "a failed delete records nothing")
}

func TestNewEditTruncatesRedo(t *testing.T) {
	sess, _, fids := setupSession(t)

	first, err := sess.AddRecord(map[int64]any{fids["Title"]: "first"})
	require.NoError(t, err)
	_, err = sess.AddRecord(map[int64]any{fids["Title"]: "second"})
	require.NoError(t, err)

	require.NoError(t, sess.Undo())
	require.True(t, sess.History().CanRedo())

	require.NoError(t, sess.UpdateRecord(first, map[int64]any{fids["Title"]: "edited"}))
	assert.False(t, sess.History().CanRedo())
}

func TestRecordsUsesWorkingState(t *testing.T) {
	sess, _, fids := setupSession(t)

	for i, title := range []string{"alpha", "beta", "gamma"} {
		_, err := sess.AddRecord(map[int64]any{
			fids["Title"]: title,
			fids["Hours"]: float64(i + 1),
		})
		require.NoError(t, err)
	}

	t.Run("filter", func(t *testing.T) {
		sess.SetFilter(fids["Hours"], types.Filter{Min: f64(2)})
		defer sess.ClearFilter(fids["Hours"])
		records, err := sess.Records()
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("search", func(t *testing.T) {
		sess.SetSearch("beta")
		defer sess.SetSearch("")
		records, err := sess.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "beta", records[0].Values[fids["Title"]])
	})

	t.Run("sort", func(t *testing.T) {
		sess.SetSort(fids["Hours"], "asc")
		records, err := sess.Records()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 1.0, records[0].Values[fids["Hours"]])
	})

	assert.True(t, sess.Dirty())
}

func TestFieldHiding(t *testing.T) {
	sess, st, fids := setupSession(t)

	require.NoError(t, sess.SetFieldHidden(fids["Due"], true))
	visible := sess.VisibleFields()
	require.Len(t, visible, 3)
	for _, f := range visible {
		assert.NotEqual(t, fids["Due"], f.ID)
	}

	prefs, err := st.GetTablePrefs(sess.Table().ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{fids["Due"]}, prefs.HiddenFieldIDs)

	require.NoError(t, sess.SetFieldHidden(fids["Due"], false))
	assert.Len(t, sess.VisibleFields(), 4)
}

func TestDisplayValue(t *testing.T) {
	sess, _, fids := setupSession(t)
	fieldByID := func(id int64) types.Field {
		for _, f := range sess.Fields() {
			if f.ID == id {
				return f
			}
		}
		t.Fatalf("field %d not found", id)
		return types.Field{}
	}

	title := fieldByID(fids["Title"])
	hours := fieldByID(fids["Hours"])
	done := fieldByID(fids["Done"])

	assert.Equal(t, "", sess.DisplayValue(title, nil))
	assert.Equal(t, "hello", sess.DisplayValue(title, "hello"))
	assert.Equal(t, "2.5", sess.DisplayValue(hours, 2.5))
	assert.Equal(t, "5", sess.DisplayValue(hours, 5.0))
	assert.Equal(t, "Yes", sess.DisplayValue(done, int64(1)))
	assert.Equal(t, "No", sess.DisplayValue(done, int64(0)))
}

func TestDisplayValueCustomBoolLabels(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tbl, err := st.CreateTable("Tareas", nil)
	require.NoError(t, err)
	f, err := st.AddField(tbl.ID, "Hecho", types.FieldTypeBool, false, types.FieldOptions{})
	require.NoError(t, err)

	sess, err := Open(st, tbl.ID, types.Config{TrueLabel: "Sí", FalseLabel: "No"})
	require.NoError(t, err)

	field := sess.Fields()[0]
	require.Equal(t, f.ID, field.ID)
	assert.Equal(t, "Sí", sess.DisplayValue(field, int64(1)))
	assert.Equal(t, "No", sess.DisplayValue(field, int64(0)))
}

func TestDisplayValueRelation(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authors, err := st.CreateTable("Authors", nil)
	require.NoError(t, err)
	name, err := st.AddField(authors.ID, "Name", types.FieldTypeText, false, types.FieldOptions{})
	require.NoError(t, err)
	ada, err := st.InsertRecord(authors.ID, map[int64]any{name.ID: "Ada"})
	require.NoError(t, err)

	books, err := st.CreateTable("Books", nil)
	require.NoError(t, err)
	author, err := st.AddField(books.ID, "Author", types.FieldTypeRelation, false,
		types.FieldOptions{TargetTableID: authors.ID, DisplayFieldID: name.ID})
	require.NoError(t, err)

	sess, err := Open(st, books.ID, types.Config{})
	require.NoError(t, err)
	field := sess.Fields()[0]
	require.Equal(t, author.ID, field.ID)

	assert.Equal(t, "", sess.DisplayValue(field, int64(0)), "unset reference")
	assert.Equal(t, "Ada", sess.DisplayValue(field, ada))
	assert.Equal(t, "#99", sess.DisplayValue(field, int64(99)), "reference to a missing row")
}

func f64(v float64) *float64 { return &v }
