// Package types defines the catalog entities, field type vocabulary, query
// descriptors, and standard error values for the Trestle workspace store.
package types
