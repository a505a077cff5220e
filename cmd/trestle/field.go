// Field commands for the trestle CLI.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

var (
	fieldAddRequired bool
	fieldAddChoices  string
	fieldAddTarget   string
	fieldAddDisplay  string
	fieldListAll     bool
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage table fields",
}

var fieldAddCmd = &cobra.Command{
	Use:   "add <table> <name> <type>",
	Short: "Add a field to a table",
	Long: `Add a field to a table. Valid types: text, number, date, bool, file,
select, relation, path, image.

Select fields take --choices; relation fields take --target and
optionally --display-field.

Example:
  trestle field add Tasks Title text
  trestle field add Tasks Status select --choices "Open,Closed"
  trestle field add Tasks Author relation --target Authors --display-field Name`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("field add", err)
		}
		defer st.Close()

		t, err := resolveTable(st, args[0])
		if err != nil {
			fail("field add", err)
		}

		opts, err := fieldOptionsFromFlags(st)
		if err != nil {
			fail("field add", err)
		}

		f, err := st.AddField(t.ID, args[1], args[2], fieldAddRequired, opts)
		if err != nil {
			fail("field add", err)
		}

		if flagJSON {
			return printJSON(f)
		}
		fmt.Printf("Added field %d: %s (%s)\n", f.ID, f.Name, f.FType)
		return nil
	},
}

// fieldOptionsFromFlags builds FieldOptions from the add flags, resolving
// the relation target table and display field when given.
func fieldOptionsFromFlags(st *store.Store) (types.FieldOptions, error) {
	var opts types.FieldOptions

	if fieldAddChoices != "" {
		for _, c := range strings.Split(fieldAddChoices, ",") {
			opts.Choices = append(opts.Choices, strings.TrimSpace(c))
		}
	}

	if fieldAddTarget != "" {
		target, err := resolveTable(st, fieldAddTarget)
		if err != nil {
			return opts, err
		}
		opts.TargetTableID = target.ID

		if fieldAddDisplay != "" {
			if id, err := strconv.ParseInt(fieldAddDisplay, 10, 64); err == nil {
				opts.DisplayFieldID = id
			} else {
				targetFields, err := st.ListFields(target.ID, true)
				if err != nil {
					return opts, err
				}
				df, err := fieldByName(targetFields, fieldAddDisplay)
				if err != nil {
					return opts, err
				}
				opts.DisplayFieldID = df.ID
			}
		}
	}

	return opts, nil
}

var fieldListCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List a table's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("field list", err)
		}
		defer st.Close()

		t, err := resolveTable(st, args[0])
		if err != nil {
			fail("field list", err)
		}

		fields, err := st.ListFields(t.ID, !fieldListAll)
		if err != nil {
			fail("field list", err)
		}

		if flagJSON {
			return printJSON(fields)
		}
		printFieldTable(fields)
		return nil
	},
}

var fieldRenameCmd = &cobra.Command{
	Use:   "rename <field-id> <name>",
	Short: "Rename a field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "field rename:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("field rename", err)
		}
		defer st.Close()

		if err := st.RenameField(id, args[1]); err != nil {
			fail("field rename", err)
		}

		fmt.Printf("Renamed field %d to %s\n", id, args[1])
		return nil
	},
}

var fieldDeactivateCmd = &cobra.Command{
	Use:   "deactivate <field-id>",
	Short: "Deactivate a field (its column and data are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "field deactivate:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("field deactivate", err)
		}
		defer st.Close()

		if err := st.DeactivateField(id); err != nil {
			fail("field deactivate", err)
		}

		fmt.Printf("Deactivated field %d\n", id)
		return nil
	},
}

var fieldChoicesCmd = &cobra.Command{
	Use:   "choices <field-id> <choice,choice,...>",
	Short: "Replace a select field's choices",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "field choices:", err)
			os.Exit(exitUserError)
		}

		var choices []string
		for _, c := range strings.Split(args[1], ",") {
			choices = append(choices, strings.TrimSpace(c))
		}

		st, err := openStore()
		if err != nil {
			fail("field choices", err)
		}
		defer st.Close()

		if err := st.SetFieldChoices(id, choices); err != nil {
			fail("field choices", err)
		}

		fmt.Printf("Updated choices for field %d\n", id)
		return nil
	},
}

var fieldReorderCmd = &cobra.Command{
	Use:   "reorder <table> <id,id,...>",
	Short: "Reorder a table's fields",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("field reorder", err)
		}
		defer st.Close()

		t, err := resolveTable(st, args[0])
		if err != nil {
			fail("field reorder", err)
		}

		var ids []int64
		for _, part := range strings.Split(args[1], ",") {
			id, err := parseID(strings.TrimSpace(part))
			if err != nil {
				fmt.Fprintln(os.Stderr, "field reorder:", err)
				os.Exit(exitUserError)
			}
			ids = append(ids, id)
		}

		if err := st.ReorderFields(t.ID, ids); err != nil {
			fail("field reorder", err)
		}

		fmt.Printf("Reordered %d field(s)\n", len(ids))
		return nil
	},
}

func init() {
	fieldAddCmd.Flags().BoolVar(&fieldAddRequired, "required", false, "mark the field as required")
	fieldAddCmd.Flags().StringVar(&fieldAddChoices, "choices", "", "comma-separated choices (select fields)")
	fieldAddCmd.Flags().StringVar(&fieldAddTarget, "target", "", "target table (relation fields)")
	fieldAddCmd.Flags().StringVar(&fieldAddDisplay, "display-field", "", "target field shown as the relation label")
	fieldListCmd.Flags().BoolVar(&fieldListAll, "all", false, "include deactivated fields")

	fieldCmd.AddCommand(fieldAddCmd)
	fieldCmd.AddCommand(fieldListCmd)
	fieldCmd.AddCommand(fieldRenameCmd)
	fieldCmd.AddCommand(fieldDeactivateCmd)
	fieldCmd.AddCommand(fieldChoicesCmd)
	fieldCmd.AddCommand(fieldReorderCmd)
}

// printFieldTable prints fields in a human-readable table format.
func printFieldTable(fields []types.Field) {
	if len(fields) == 0 {
		fmt.Println("No fields found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tTYPE\tACTIVE\tDETAILS")
	for _, f := range fields {
		details := "-"
		switch {
		case len(f.Options.Choices) > 0:
			details = strings.Join(f.Options.Choices, ", ")
		case f.Options.TargetTableID != 0:
			details = fmt.Sprintf("table %d", f.Options.TargetTableID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", f.ID, f.Name, f.FType, f.Active, details)
	}
	w.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Printf("Total: %d field(s)\n", len(fields))
}
