package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// libraryFixture builds a table with one field per type plus a target
// table for the relation field. Returns the table id and field ids by name.
func libraryFixture(t *testing.T, s *Store) (int64, map[string]int64) {
	t.Helper()
	authors, err := s.CreateTable("Authors", nil)
	require.NoError(t, err)
	books, err := s.CreateTable("Books", nil)
	require.NoError(t, err)

	ids := make(map[string]int64)
	add := func(name, ftype string, opts types.FieldOptions) {
		f, err := s.AddField(books.ID, name, ftype, false, opts)
		require.NoError(t, err)
		ids[name] = f.ID
	}
	add("Title", types.FieldTypeText, types.FieldOptions{})
	add("Pages", types.FieldTypeNumber, types.FieldOptions{})
	add("Published", types.FieldTypeDate, types.FieldOptions{})
	add("Read", types.FieldTypeBool, types.FieldOptions{})
	add("Status", types.FieldTypeSelect, types.FieldOptions{Choices: []string{"Open", "Closed"}})
	add("Author", types.FieldTypeRelation, types.FieldOptions{TargetTableID: authors.ID})
	return books.ID, ids
}

func recordIDs(records []types.Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestListRecordsDefaultOrder(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Title"]: title})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(tableID, types.RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Values[fids["Title"]], "newest first by default")
	assert.Equal(t, "first", records[2].Values[fids["Title"]])
}

func TestListRecordsNumberRange(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for _, pages := range []float64{5, 10, 15, 20, 25} {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Pages"]: pages})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(tableID, types.RecordQuery{
		Filters: map[int64]types.Filter{
			fids["Pages"]: {Min: f64Ptr(10), Max: f64Ptr(20)},
		},
	})
	require.NoError(t, err)
	var got []float64
	for _, r := range records {
		got = append(got, r.Values[fids["Pages"]].(float64))
	}
	assert.ElementsMatch(t, []float64{10, 15, 20}, got, "range bounds are inclusive")
}

func TestListRecordsTextFilters(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for _, title := range []string{"Go in Action", "Action Comics", "Quiet"} {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Title"]: title})
		require.NoError(t, err)
	}

	t.Run("contains", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{fids["Title"]: {Contains: strPtr("Action")}},
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("equals is exact", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{fids["Title"]: {Equals: strPtr("Quiet")}},
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Quiet", records[0].Values[fids["Title"]])
	})

	t.Run("equals beats contains", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{
				fids["Title"]: {Equals: strPtr("Quiet"), Contains: strPtr("Action")},
			},
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Quiet", records[0].Values[fids["Title"]])
	})

	t.Run("blank equals falls back to contains", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{
				fids["Title"]: {Equals: strPtr("  "), Contains: strPtr("Action")},
			},
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestListRecordsSelectEquals(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for _, status := range []string{"Open", "Closed"} {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Status"]: status})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(tableID, types.RecordQuery{
		Filters: map[int64]types.Filter{fids["Status"]: {Equals: strPtr("Open")}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Open", records[0].Values[fids["Status"]])

	records, err = s.ListRecords(tableID, types.RecordQuery{
		Filters: map[int64]types.Filter{fids["Status"]: {Equals: strPtr("Done")}},
	})
	require.NoError(t, err)
	assert.Empty(t, records, "a value outside the choice list matches nothing")
}

func TestListRecordsDateRange(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for _, day := range []string{"2024-01-05", "2024-02-14", "2024-03-30"} {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Published"]: day})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(tableID, types.RecordQuery{
		Filters: map[int64]types.Filter{
			fids["Published"]: {From: strPtr("2024-02-01"), To: strPtr("2024-02-28")},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-02-14", records[0].Values[fids["Published"]])
}

func TestListRecordsBoolAndRelation(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	_, err := s.InsertRecord(tableID, map[int64]any{fids["Read"]: int64(1), fids["Author"]: int64(7)})
	require.NoError(t, err)
	_, err = s.InsertRecord(tableID, map[int64]any{fids["Read"]: int64(0), fids["Author"]: int64(8)})
	require.NoError(t, err)

	t.Run("bool is", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{fids["Read"]: {Is: i64Ptr(1)}},
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(1), records[0].Values[fids["Read"]])
	})

	t.Run("bool out of range ignored", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{fids["Read"]: {Is: i64Ptr(5)}},
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("relation is", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{fids["Author"]: {Is: i64Ptr(8)}},
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(8), records[0].Values[fids["Author"]])
	})
}

func TestListRecordsIgnoresUnknownFilterFields(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	_, err := s.InsertRecord(tableID, map[int64]any{fids["Title"]: "kept"})
	require.NoError(t, err)

	t.Run("never-existed field", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{999: {Equals: strPtr("x")}},
		})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("deactivated field", func(t *testing.T) {
		require.NoError(t, s.DeactivateField(fids["Title"]))
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Filters: map[int64]types.Filter{fids["Title"]: {Equals: strPtr("kept")}},
		})
		require.NoError(t, err)
		assert.Len(t, records, 1, "filter on a hidden field drops out instead of erroring")
	})
}

func TestListRecordsSearch(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	first, err := s.InsertRecord(tableID, map[int64]any{
		fids["Title"]:     "Go in Action",
		fids["Pages"]:     240.5,
		fids["Published"]: "2024-02-14",
		fids["Read"]:      int64(1),
		fids["Author"]:    int64(12),
	})
	require.NoError(t, err)
	_, err = s.InsertRecord(tableID, map[int64]any{
		fids["Title"]: "Quiet",
		fids["Read"]:  int64(0),
	})
	require.NoError(t, err)

	t.Run("text substring", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "action"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first, records[0].ID)
	})

	t.Run("record id", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "1"})
		require.NoError(t, err)
		assert.NotEmpty(t, records)
	})

	t.Run("date substring", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "2024-02"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first, records[0].ID)
	})

	t.Run("number with decimal comma", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "240,5"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first, records[0].ID)
	})

	t.Run("bool vocabulary", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "yes"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first, records[0].ID)
	})

	t.Run("custom bool vocabulary", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			Search:     "oui",
			Vocabulary: types.SearchVocabulary{True: []string{"oui"}, False: []string{"non"}},
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first, records[0].ID)
	})

	t.Run("relation id", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "12"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first, records[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "zzz"})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("blank search returns everything", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{Search: "   "})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestListRecordsSearchCombinesWithFilters(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	_, err := s.InsertRecord(tableID, map[int64]any{fids["Title"]: "Go in Action", fids["Read"]: int64(1)})
	require.NoError(t, err)
	match, err := s.InsertRecord(tableID, map[int64]any{fids["Title"]: "Action Comics", fids["Read"]: int64(0)})
	require.NoError(t, err)

	records, err := s.ListRecords(tableID, types.RecordQuery{
		Search:  "action",
		Filters: map[int64]types.Filter{fids["Read"]: {Is: i64Ptr(0)}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, match, records[0].ID)
}

func TestListRecordsSort(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for _, pages := range []float64{300, 100, 200} {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Pages"]: pages})
		require.NoError(t, err)
	}

	t.Run("ascending by field", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			SortFieldID: fids["Pages"], SortDir: types.SortAsc,
		})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 100.0, records[0].Values[fids["Pages"]])
		assert.Equal(t, 300.0, records[2].Values[fids["Pages"]])
	})

	t.Run("descending by field", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			SortFieldID: fids["Pages"], SortDir: types.SortDesc,
		})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 300.0, records[0].Values[fids["Pages"]])
	})

	t.Run("unknown direction means descending", func(t *testing.T) {
		records, err := s.ListRecords(tableID, types.RecordQuery{
			SortFieldID: fids["Pages"], SortDir: "sideways",
		})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 300.0, records[0].Values[fids["Pages"]])
	})

	t.Run("deactivated sort field falls back to id", func(t *testing.T) {
		require.NoError(t, s.DeactivateField(fids["Pages"]))
		records, err := s.ListRecords(tableID, types.RecordQuery{
			SortFieldID: fids["Pages"], SortDir: types.SortAsc,
		})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []int64{1, 2, 3}, recordIDs(records))
	})
}

func TestListRecordsSortTieBreaksNewestFirst(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for i := 0; i < 3; i++ {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Pages"]: 50.0})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(tableID, types.RecordQuery{
		SortFieldID: fids["Pages"], SortDir: types.SortAsc,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, recordIDs(records))
}

func TestListRecordsLimit(t *testing.T) {
	s := setupStore(t)
	tableID, fids := libraryFixture(t, s)

	for i := 0; i < 5; i++ {
		_, err := s.InsertRecord(tableID, map[int64]any{fids["Pages"]: float64(i)})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(tableID, types.RecordQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []int64{5, 4}, recordIDs(records), "the newest rows survive the cap")
}
