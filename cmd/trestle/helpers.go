// Shared helpers for trestle CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/trestle/internal/session"
	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

// openStore resolves the data directory and opens the store. The caller
// must defer st.Close().
func openStore() (*store.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	cliConfig.DataDir = dataDir

	st, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// openSession opens a table session carrying the configured display
// labels and record limit.
func openSession(st *store.Store, tableID int64) (*session.Session, error) {
	return session.Open(st, tableID, cliConfig)
}

// resolveTable accepts a numeric table id or an exact table name and
// returns the matching table.
func resolveTable(st *store.Store, arg string) (*types.Table, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return st.GetTable(id)
	}

	tables, err := st.ListTables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	for i := range tables {
		if tables[i].Name == arg {
			return &tables[i], nil
		}
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("unknown table %q (no tables exist yet): %w", arg, types.ErrNotFound)
	}
	return nil, fmt.Errorf("unknown table %q (valid: %s): %w", arg, strings.Join(names, ", "), types.ErrNotFound)
}

// fieldByName returns the active field with the given name, or an error
// listing the valid names.
func fieldByName(fields []types.Field, name string) (*types.Field, error) {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i], nil
		}
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return nil, fmt.Errorf("unknown field %q (valid: %s): %w", name, strings.Join(names, ", "), types.ErrNotFound)
}

// parseAssignments splits name=value arguments into a map, rejecting
// arguments without an equals sign.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (expected field=value)", arg)
		}
		values[name] = value
	}
	return values, nil
}

// parseID parses a decimal entity id.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an id", types.ErrInvalidValue, arg)
	}
	return id, nil
}

// printJSON writes indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// userErrors lists the sentinel errors caused by bad input rather than a
// failing system.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidName,
	types.ErrDuplicateName,
	types.ErrProjectCycle,
	types.ErrInvalidFieldType,
	types.ErrInvalidValue,
	types.ErrLastView,
	types.ErrDuplicateView,
}

// isUserError reports whether err wraps one of the user-error sentinels.
func isUserError(err error) bool {
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// fail prints the error with a context prefix and exits with the code
// matching its class.
func fail(prefix string, err error) {
	fmt.Fprintln(os.Stderr, prefix+":", err)
	if isUserError(err) {
		os.Exit(exitUserError)
	}
	os.Exit(exitSysError)
}
