package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// ListRecords runs one record listing against a table. Free-text search
// becomes a disjunction across the id and every live field that can
// meaningfully match the term; structured filters are conjoined and
// filters naming unknown or deactivated fields are silently ignored.
// Results are hard-capped at the query's limit.
func (s *Store) ListRecords(tableID int64, q types.RecordQuery) ([]types.Record, error) {
	_, db, err := s.handles()
	if err != nil {
		return nil, err
	}
	if err := s.EnsureTable(tableID); err != nil {
		return nil, err
	}
	fields, err := s.ListFields(tableID, true)
	if err != nil {
		return nil, err
	}
	fieldsByID := make(map[int64]types.Field, len(fields))
	for _, f := range fields {
		fieldsByID[f.ID] = f
	}

	var where []string
	var args []any

	if term := strings.TrimSpace(q.Search); term != "" {
		clause, clauseArgs := searchClause(term, fields, q.EffectiveVocabulary())
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	for _, fid := range sortedFilterIDs(q.Filters) {
		f, ok := fieldsByID[fid]
		if !ok {
			continue
		}
		clauses, clauseArgs := filterClauses(f, q.Filters[fid])
		where = append(where, clauses...)
		args = append(args, clauseArgs...)
	}

	orderCol := "id"
	if q.SortFieldID != 0 {
		if f, ok := fieldsByID[q.SortFieldID]; ok {
			orderCol = f.ColumnName()
		}
	}
	dir := types.NormalizeSortDir(q.SortDir)

	stmt := fmt.Sprintf("SELECT * FROM %s", types.DataTableName(tableID))
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += fmt.Sprintf(" ORDER BY %s %s, id DESC LIMIT ?;", orderCol, dir)
	args = append(args, q.EffectiveLimit())

	rows, err := db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records of table %d: %w", tableID, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// searchClause builds the free-text disjunction. Fields whose type cannot
// compare against the term contribute nothing instead of erroring: a
// non-numeric term skips number and relation fields, a term outside the
// bool vocabulary skips bool fields.
func searchClause(term string, fields []types.Field, vocab types.SearchVocabulary) (string, []any) {
	like := "%" + term + "%"
	or := []string{"CAST(id AS TEXT) LIKE ?"}
	args := []any{like}

	for _, f := range fields {
		col := f.ColumnName()
		switch {
		case types.IsTextualFieldType(f.FType):
			or = append(or, col+" LIKE ?")
			args = append(args, like)
		case f.FType == types.FieldTypeNumber:
			if num, err := strconv.ParseFloat(strings.ReplaceAll(term, ",", "."), 64); err == nil {
				or = append(or, col+" = ?")
				args = append(args, num)
			}
		case f.FType == types.FieldTypeBool:
			if v, ok := vocab.BoolToken(term); ok {
				if v {
					or = append(or, col+" = 1")
				} else {
					or = append(or, col+" = 0")
				}
			}
		case f.FType == types.FieldTypeRelation:
			if id, err := strconv.ParseInt(term, 10, 64); err == nil {
				or = append(or, col+" = ?")
				args = append(args, id)
			}
		}
	}
	return "(" + strings.Join(or, " OR ") + ")", args
}

// filterClauses translates one field's filter into SQL conditions. Keys
// that do not fit the field's type are ignored; for text-like fields a
// non-empty equals beats contains.
func filterClauses(f types.Field, flt types.Filter) ([]string, []any) {
	col := f.ColumnName()
	var clauses []string
	var args []any

	switch f.FType {
	case types.FieldTypeText, types.FieldTypeFile, types.FieldTypeSelect, types.FieldTypePath:
		if flt.Equals != nil && strings.TrimSpace(*flt.Equals) != "" {
			clauses = append(clauses, col+" = ?")
			args = append(args, *flt.Equals)
		} else if flt.Contains != nil && strings.TrimSpace(*flt.Contains) != "" {
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, "%"+*flt.Contains+"%")
		}
	case types.FieldTypeNumber:
		if flt.Min != nil {
			clauses = append(clauses, col+" >= ?")
			args = append(args, *flt.Min)
		}
		if flt.Max != nil {
			clauses = append(clauses, col+" <= ?")
			args = append(args, *flt.Max)
		}
	case types.FieldTypeDate:
		if flt.From != nil && strings.TrimSpace(*flt.From) != "" {
			clauses = append(clauses, col+" >= ?")
			args = append(args, *flt.From)
		}
		if flt.To != nil && strings.TrimSpace(*flt.To) != "" {
			clauses = append(clauses, col+" <= ?")
			args = append(args, *flt.To)
		}
	case types.FieldTypeBool:
		if flt.Is != nil && (*flt.Is == 0 || *flt.Is == 1) {
			clauses = append(clauses, col+" = ?")
			args = append(args, *flt.Is)
		}
	case types.FieldTypeRelation:
		if flt.Is != nil && *flt.Is > 0 {
			clauses = append(clauses, col+" = ?")
			args = append(args, *flt.Is)
		}
	}
	return clauses, args
}

// sortedFilterIDs returns filter keys in ascending order so the generated
// SQL is deterministic for a given query.
func sortedFilterIDs(filters map[int64]types.Filter) []int64 {
	ids := make([]int64, 0, len(filters))
	for id := range filters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
