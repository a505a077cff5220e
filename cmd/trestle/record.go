// Record commands for the trestle CLI.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/session"
	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/internal/vault"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

var (
	recordListSearch string
	recordListSort   string
	recordListDesc   bool
	recordListLimit  int
	recordListView   int64
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage records",
}

var recordAddCmd = &cobra.Command{
	Use:   "add <table> [field=value ...]",
	Short: "Add a record",
	Long: `Add a record to a table. Values are given as field=value pairs using
field names; omitted fields get their type's zero value. An absolute
path given for a file or image field is copied into the attachment
vault and the record stores the vault reference.

Example:
  trestle record add Tasks Title="Fix the roof" Hours=2.5 Done=yes
  trestle record add Docs Name=Lease Scan=/home/me/lease.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("record add", err)
		}
		defer st.Close()

		sess, t, err := sessionFor(st, args[0])
		if err != nil {
			fail("record add", err)
		}

		values, err := assignmentsToValues(st, sess, args[1:])
		if err != nil {
			fail("record add", err)
		}

		id, err := sess.AddRecord(values)
		if err != nil {
			fail("record add", err)
		}

		if flagJSON {
			rec, err := st.GetRecord(t.ID, id)
			if err != nil {
				fail("record add", err)
			}
			return printJSON(rec)
		}
		fmt.Printf("Added record %d\n", id)
		return nil
	},
}

var recordGetCmd = &cobra.Command{
	Use:   "get <table> <id>",
	Short: "Display one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "record get:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("record get", err)
		}
		defer st.Close()

		sess, t, err := sessionFor(st, args[0])
		if err != nil {
			fail("record get", err)
		}

		rec, err := st.GetRecord(t.ID, id)
		if err != nil {
			fail("record get", err)
		}

		if flagJSON {
			return printJSON(rec)
		}

		fmt.Printf("ID:       %d\n", rec.ID)
		fmt.Printf("Created:  %s\n", rec.CreatedAt)
		fmt.Printf("Updated:  %s\n", rec.UpdatedAt)
		for _, f := range sess.Fields() {
			fmt.Printf("%s: %s\n", f.Name, sess.DisplayValue(f, rec.Value(f.ID)))
		}
		return nil
	},
}

var recordSetCmd = &cobra.Command{
	Use:   "set <table> <id> <field=value ...>",
	Short: "Update fields of a record",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "record set:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("record set", err)
		}
		defer st.Close()

		sess, t, err := sessionFor(st, args[0])
		if err != nil {
			fail("record set", err)
		}

		values, err := assignmentsToValues(st, sess, args[2:])
		if err != nil {
			fail("record set", err)
		}

		if err := sess.UpdateRecord(id, values); err != nil {
			fail("record set", err)
		}

		if flagJSON {
			rec, err := st.GetRecord(t.ID, id)
			if err != nil {
				fail("record set", err)
			}
			return printJSON(rec)
		}
		fmt.Printf("Updated record %d\n", id)
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <table> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "record delete:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("record delete", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("record delete", err)
		}

		if err := sess.DeleteRecord(id); err != nil {
			fail("record delete", err)
		}

		fmt.Printf("Deleted record %d\n", id)
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List records through the table's active view",
	Long: `List records of a table. The saved state of the active view applies;
--search, --sort, and --limit override it for this listing only.

Example:
  trestle record list Tasks
  trestle record list Tasks --search roof
  trestle record list Tasks --sort Hours --desc --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("record list", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("record list", err)
		}

		if recordListView != 0 {
			if err := sess.SelectView(recordListView); err != nil {
				fail("record list", err)
			}
		}
		if recordListSearch != "" {
			sess.SetSearch(recordListSearch)
		}
		if recordListSort != "" {
			f, err := fieldByName(sess.Fields(), recordListSort)
			if err != nil {
				fail("record list", err)
			}
			dir := types.SortAsc
			if recordListDesc {
				dir = types.SortDesc
			}
			sess.SetSort(f.ID, dir)
		}

		records, err := sess.Records()
		if err != nil {
			fail("record list", err)
		}
		if recordListLimit > 0 && len(records) > recordListLimit {
			records = records[:recordListLimit]
		}

		if flagJSON {
			return printJSON(records)
		}
		printRecordTable(sess, records)
		return nil
	},
}

// sessionFor resolves the table argument and opens a session on it.
func sessionFor(st *store.Store, arg string) (*session.Session, *types.Table, error) {
	t, err := resolveTable(st, arg)
	if err != nil {
		return nil, nil, err
	}
	sess, err := openSession(st, t.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, t, nil
}

// assignmentsToValues parses field=value arguments against the session's
// active fields. File and image values go through the attachment vault so
// the record stores a vault-relative reference.
func assignmentsToValues(st *store.Store, sess *session.Session, args []string) (map[int64]any, error) {
	assignments, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}

	values := make(map[int64]any, len(assignments))
	var vlt *vault.Vault
	for name, value := range assignments {
		f, err := fieldByName(sess.Fields(), name)
		if err != nil {
			return nil, err
		}
		if f.FType == types.FieldTypeFile || f.FType == types.FieldTypeImage {
			if vlt == nil {
				if vlt, err = vault.Open(st.DataDir()); err != nil {
					return nil, err
				}
			}
			ref, err := vlt.Normalize(value)
			if err != nil {
				return nil, err
			}
			values[f.ID] = ref
			continue
		}
		values[f.ID] = value
	}
	return values, nil
}

func init() {
	recordListCmd.Flags().StringVar(&recordListSearch, "search", "", "free-text search across all fields")
	recordListCmd.Flags().StringVar(&recordListSort, "sort", "", "field name to sort by")
	recordListCmd.Flags().BoolVar(&recordListDesc, "desc", false, "sort descending")
	recordListCmd.Flags().IntVar(&recordListLimit, "limit", 0, "maximum number of results (0 = view default)")
	recordListCmd.Flags().Int64Var(&recordListView, "view", 0, "view id to list through")

	recordCmd.AddCommand(recordAddCmd)
	recordCmd.AddCommand(recordGetCmd)
	recordCmd.AddCommand(recordSetCmd)
	recordCmd.AddCommand(recordDeleteCmd)
	recordCmd.AddCommand(recordListCmd)
}

// printRecordTable prints records in a human-readable table with one
// column per visible field.
func printRecordTable(sess *session.Session, records []types.Record) {
	if len(records) == 0 {
		fmt.Println("No records found.")
		return
	}

	fields := sess.VisibleFields()

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	header := make([]string, 0, len(fields)+1)
	header = append(header, "ID")
	for _, f := range fields {
		header = append(header, strings.ToUpper(f.Name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, rec := range records {
		row := make([]string, 0, len(fields)+1)
		row = append(row, strconv.FormatInt(rec.ID, 10))
		for _, f := range fields {
			cell := sess.DisplayValue(f, rec.Value(f.ID))
			if len(cell) > 40 {
				cell = cell[:37] + "..."
			}
			row = append(row, cell)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Printf("Total: %d record(s)\n", len(records))
}
