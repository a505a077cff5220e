// View commands for the trestle CLI.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/session"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

// viewStateFlags collects the working-state overrides shared by the
// create and update commands.
type viewStateFlags struct {
	search       string
	sort         string
	desc         bool
	filters      []string
	hide         []string
	show         []string
	clearSearch  bool
	clearFilters bool
}

var (
	viewCreateState viewStateFlags
	viewUpdateState viewStateFlags
	viewUpdateID    int64
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved views",
}

var viewListCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List a table's views",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("view list", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("view list", err)
		}

		views, err := sess.Views()
		if err != nil {
			fail("view list", err)
		}

		if flagJSON {
			return printJSON(views)
		}
		printViewTable(views, sess.CurrentViewID())
		return nil
	},
}

var viewCreateCmd = &cobra.Command{
	Use:   "create <table> <name>",
	Short: "Save the current state as a new view",
	Long: `Save a new view of a table. The new view starts from the active view's
state; --search, --sort, --filter, --hide, and --show adjust it first.

Filters are field=value conditions. Text-like fields match exactly with
= and by substring with ~. Number and date fields accept ranges written
as min..max (either end may be omitted). Bool fields take yes/no and
relation fields take a target record id.

Example:
  trestle view create Tasks "Open this week"
  trestle view create Tasks Urgent --filter "Done=no" --sort Due
  trestle view create Books Long --filter "Pages=300.." --hide Notes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("view create", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("view create", err)
		}

		if err := applyStateFlags(sess, viewCreateState); err != nil {
			fail("view create", err)
		}

		v, err := sess.SaveViewAs(args[1])
		if err != nil {
			fail("view create", err)
		}

		if flagJSON {
			return printJSON(v)
		}
		fmt.Printf("Created view %d: %s\n", v.ID, v.Name)
		return nil
	},
}

var viewSelectCmd = &cobra.Command{
	Use:   "select <table> <view>",
	Short: "Make a view the table's active view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("view select", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("view select", err)
		}

		v, err := resolveView(sess, args[1])
		if err != nil {
			fail("view select", err)
		}

		if err := sess.SelectView(v.ID); err != nil {
			fail("view select", err)
		}

		fmt.Printf("Selected view %d: %s\n", v.ID, v.Name)
		return nil
	},
}

var viewUpdateCmd = &cobra.Command{
	Use:   "update <table>",
	Short: "Adjust and save the active view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("view update", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("view update", err)
		}

		if viewUpdateID != 0 {
			if err := sess.SelectView(viewUpdateID); err != nil {
				fail("view update", err)
			}
		}

		if err := applyStateFlags(sess, viewUpdateState); err != nil {
			fail("view update", err)
		}

		if err := sess.SaveView(); err != nil {
			fail("view update", err)
		}

		fmt.Printf("Saved view %d\n", sess.CurrentViewID())
		return nil
	},
}

var viewRenameCmd = &cobra.Command{
	Use:   "rename <table> <view> <name>",
	Short: "Rename a view",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("view rename", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("view rename", err)
		}

		v, err := resolveView(sess, args[1])
		if err != nil {
			fail("view rename", err)
		}
		if err := sess.SelectView(v.ID); err != nil {
			fail("view rename", err)
		}

		if err := sess.RenameView(args[2]); err != nil {
			fail("view rename", err)
		}

		fmt.Printf("Renamed view %d to %s\n", v.ID, args[2])
		return nil
	},
}

var viewDeleteCmd = &cobra.Command{
	Use:   "delete <table> <view>",
	Short: "Delete a view (the last view cannot be deleted)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("view delete", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("view delete", err)
		}

		v, err := resolveView(sess, args[1])
		if err != nil {
			fail("view delete", err)
		}
		if err := sess.SelectView(v.ID); err != nil {
			fail("view delete", err)
		}

		if err := sess.DeleteView(); err != nil {
			fail("view delete", err)
		}

		fmt.Printf("Deleted view %d: %s\n", v.ID, v.Name)
		return nil
	},
}

// resolveView accepts a numeric view id or an exact view name.
func resolveView(sess *session.Session, arg string) (*types.View, error) {
	views, err := sess.Views()
	if err != nil {
		return nil, err
	}

	if id, parseErr := parseID(arg); parseErr == nil {
		for i := range views {
			if views[i].ID == id {
				return &views[i], nil
			}
		}
	}
	for i := range views {
		if views[i].Name == arg {
			return &views[i], nil
		}
	}

	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return nil, fmt.Errorf("unknown view %q (valid: %s): %w", arg, strings.Join(names, ", "), types.ErrNotFound)
}

// applyStateFlags folds the flag overrides into the session's working
// state.
func applyStateFlags(sess *session.Session, flags viewStateFlags) error {
	if flags.clearSearch {
		sess.SetSearch("")
	}
	if flags.search != "" {
		sess.SetSearch(flags.search)
	}

	if flags.clearFilters {
		for _, f := range sess.Fields() {
			sess.ClearFilter(f.ID)
		}
	}
	for _, raw := range flags.filters {
		if err := applyFilterArg(sess, raw); err != nil {
			return err
		}
	}

	if flags.sort != "" {
		f, err := fieldByName(sess.Fields(), flags.sort)
		if err != nil {
			return err
		}
		dir := types.SortAsc
		if flags.desc {
			dir = types.SortDesc
		}
		sess.SetSort(f.ID, dir)
	}

	for _, name := range flags.hide {
		f, err := fieldByName(sess.Fields(), name)
		if err != nil {
			return err
		}
		if err := sess.SetFieldHidden(f.ID, true); err != nil {
			return err
		}
	}
	for _, name := range flags.show {
		f, err := fieldByName(sess.Fields(), name)
		if err != nil {
			return err
		}
		if err := sess.SetFieldHidden(f.ID, false); err != nil {
			return err
		}
	}

	return nil
}

// applyFilterArg parses one --filter argument and sets it on the session.
func applyFilterArg(sess *session.Session, raw string) error {
	var name, value string
	var contains bool
	if n, v, ok := strings.Cut(raw, "~"); ok && !strings.Contains(n, "=") {
		name, value, contains = n, v, true
	} else if n, v, ok := strings.Cut(raw, "="); ok {
		name, value = n, v
	} else {
		return fmt.Errorf("invalid filter %q (expected field=value or field~value)", raw)
	}

	f, err := fieldByName(sess.Fields(), name)
	if err != nil {
		return err
	}

	filter, err := buildFilter(*f, value, contains)
	if err != nil {
		return err
	}
	sess.SetFilter(f.ID, filter)
	return nil
}

// buildFilter maps a raw condition value onto the filter keys that apply
// to the field's type.
func buildFilter(f types.Field, value string, contains bool) (types.Filter, error) {
	var filter types.Filter
	switch f.FType {
	case types.FieldTypeNumber:
		lo, hi, err := parseNumberRange(value)
		if err != nil {
			return filter, fmt.Errorf("field %q: %w", f.Name, err)
		}
		filter.Min, filter.Max = lo, hi
	case types.FieldTypeDate:
		from, to := parseDateRange(value)
		filter.From, filter.To = from, to
	case types.FieldTypeBool:
		b, ok := types.DefaultSearchVocabulary().BoolToken(value)
		if !ok {
			return filter, fmt.Errorf("field %q: %w: %q is not a bool value", f.Name, types.ErrInvalidValue, value)
		}
		is := int64(0)
		if b {
			is = 1
		}
		filter.Is = &is
	case types.FieldTypeRelation:
		id, err := parseID(value)
		if err != nil {
			return filter, fmt.Errorf("field %q: %w", f.Name, err)
		}
		filter.Is = &id
	default:
		if contains {
			filter.Contains = &value
		} else {
			filter.Equals = &value
		}
	}
	return filter, nil
}

// parseNumberRange reads "min..max", "min..", "..max", or a single number.
func parseNumberRange(value string) (lo, hi *float64, err error) {
	parseEnd := func(s string) (*float64, error) {
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", types.ErrInvalidValue, s)
		}
		return &v, nil
	}

	if lowRaw, highRaw, ok := strings.Cut(value, ".."); ok {
		if lo, err = parseEnd(lowRaw); err != nil {
			return nil, nil, err
		}
		if hi, err = parseEnd(highRaw); err != nil {
			return nil, nil, err
		}
		return lo, hi, nil
	}
	if lo, err = parseEnd(value); err != nil {
		return nil, nil, err
	}
	return lo, lo, nil
}

// parseDateRange reads "from..to" with either end optional; a single
// value matches that date alone.
func parseDateRange(value string) (from, to *string) {
	if lowRaw, highRaw, ok := strings.Cut(value, ".."); ok {
		if lowRaw != "" {
			from = &lowRaw
		}
		if highRaw != "" {
			to = &highRaw
		}
		return from, to
	}
	return &value, &value
}

// addStateFlags registers the shared working-state flags on a command.
func addStateFlags(cmd *cobra.Command, flags *viewStateFlags) {
	cmd.Flags().StringVar(&flags.search, "search", "", "free-text search term")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "field name to sort by")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")
	cmd.Flags().StringArrayVar(&flags.filters, "filter", nil, "field condition (repeatable)")
	cmd.Flags().StringArrayVar(&flags.hide, "hide", nil, "field to hide (repeatable)")
	cmd.Flags().StringArrayVar(&flags.show, "show", nil, "field to unhide (repeatable)")
	cmd.Flags().BoolVar(&flags.clearSearch, "clear-search", false, "drop the saved search term")
	cmd.Flags().BoolVar(&flags.clearFilters, "clear-filters", false, "drop all saved filters")
}

func init() {
	addStateFlags(viewCreateCmd, &viewCreateState)
	addStateFlags(viewUpdateCmd, &viewUpdateState)
	viewUpdateCmd.Flags().Int64Var(&viewUpdateID, "view", 0, "view id to update (default: active view)")

	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewCreateCmd)
	viewCmd.AddCommand(viewSelectCmd)
	viewCmd.AddCommand(viewUpdateCmd)
	viewCmd.AddCommand(viewRenameCmd)
	viewCmd.AddCommand(viewDeleteCmd)
}

// printViewTable prints views in a human-readable table format.
func printViewTable(views []types.View, activeID int64) {
	if len(views) == 0 {
		fmt.Println("No views found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tSTATE")
	for _, v := range views {
		active := ""
		if v.ID == activeID {
			active = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.ID, v.Name, active, summarizeState(v.State))
	}
	w.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Printf("Total: %d view(s)\n", len(views))
}

// summarizeState renders a one-line summary of a view's saved state.
func summarizeState(state types.ViewState) string {
	var parts []string
	if state.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", state.Search))
	}
	if n := len(state.Filters); n > 0 {
		parts = append(parts, fmt.Sprintf("%d filter(s)", n))
	}
	if state.SortFieldID != 0 {
		parts = append(parts, fmt.Sprintf("sort by field %d", state.SortFieldID))
	}
	if n := len(state.HiddenFieldIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", n))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
