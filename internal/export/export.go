// Package export renders a session's current records to interchange
// formats. Exports see exactly what the session shows: visible fields
// only, display-formatted values, and the working filters applied.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mesh-intelligence/trestle/internal/session"
)

// CSV writes the session's records as comma-separated values with a
// header row of "id" plus the visible field names.
func CSV(w io.Writer, sess *session.Session) error {
	fields := sess.VisibleFields()
	records, err := sess.Records()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(fields)+1)
	header = append(header, "id")
	for _, f := range fields {
		header = append(header, f.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range records {
		row = row[:0]
		row = append(row, strconv.FormatInt(rec.ID, 10))
		for _, f := range fields {
			row = append(row, sess.DisplayValue(f, rec.Value(f.ID)))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for record %d: %w", rec.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV output: %w", err)
	}
	return nil
}

// CSVFile writes the session's records to a file, creating or truncating
// it.
func CSVFile(path string, sess *session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := CSV(f, sess); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	return nil
}
