package types

// Field types determine how a field's values are stored, searched, and
// rendered. Text-like types share TEXT storage and substring matching;
// number, bool, and relation carry their own column affinity and filter
// semantics.
const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeBool     = "bool"
	FieldTypeFile     = "file"
	FieldTypeSelect   = "select"
	FieldTypeRelation = "relation"
	FieldTypePath     = "path"
	FieldTypeImage    = "image"
)

// validFieldTypes is the set of recognized field type values.
var validFieldTypes = map[string]bool{
	FieldTypeText:     true,
	FieldTypeNumber:   true,
	FieldTypeDate:     true,
	FieldTypeBool:     true,
	FieldTypeFile:     true,
	FieldTypeSelect:   true,
	FieldTypeRelation: true,
	FieldTypePath:     true,
	FieldTypeImage:    true,
}

// textualFieldTypes are the types matched by substring in free-text search.
// Image fields are stored as TEXT too but hold vault paths, so they are
// excluded from matching. Date fields search as text yet filter by range.
var textualFieldTypes = map[string]bool{
	FieldTypeText:   true,
	FieldTypeDate:   true,
	FieldTypeFile:   true,
	FieldTypeSelect: true,
	FieldTypePath:   true,
}

// IsValidFieldType reports whether the given string is a recognized
// field type.
func IsValidFieldType(ft string) bool {
	return validFieldTypes[ft]
}

// IsTextualFieldType reports whether values of the given type are matched
// as substrings by free-text search.
func IsTextualFieldType(ft string) bool {
	return textualFieldTypes[ft]
}

// ZeroValue returns the storage default for a field type: empty string for
// TEXT-backed types, 0 for number, false for bool, and 0 for relation.
// Returns nil and ErrInvalidFieldType if the type is not recognized.
func ZeroValue(ft string) (any, error) {
	switch ft {
	case FieldTypeText, FieldTypeDate, FieldTypeFile, FieldTypeSelect, FieldTypePath, FieldTypeImage:
		return "", nil
	case FieldTypeNumber:
		return float64(0), nil
	case FieldTypeBool:
		return false, nil
	case FieldTypeRelation:
		return int64(0), nil
	default:
		return nil, ErrInvalidFieldType
	}
}
