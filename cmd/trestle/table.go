// Table commands for the trestle CLI.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

var tableCreateProject int64

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage tables",
}

var tableCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("table create", err)
		}
		defer st.Close()

		var projectID *int64
		if tableCreateProject != 0 {
			projectID = &tableCreateProject
		}

		t, err := st.CreateTable(args[0], projectID)
		if err != nil {
			fail("table create", err)
		}

		if flagJSON {
			return printJSON(t)
		}
		fmt.Printf("Created table %d: %s\n", t.ID, t.Name)
		return nil
	},
}

var tableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("table list", err)
		}
		defer st.Close()

		tables, err := st.ListTables()
		if err != nil {
			fail("table list", err)
		}

		if flagJSON {
			return printJSON(tables)
		}
		printTableTable(tables)
		return nil
	},
}

var tableRenameCmd = &cobra.Command{
	Use:   "rename <table> <name>",
	Short: "Rename a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("table rename", err)
		}
		defer st.Close()

		t, err := resolveTable(st, args[0])
		if err != nil {
			fail("table rename", err)
		}

		if err := st.RenameTable(t.ID, args[1]); err != nil {
			fail("table rename", err)
		}

		fmt.Printf("Renamed table %d to %s\n", t.ID, args[1])
		return nil
	},
}

var tableSetProjectCmd = &cobra.Command{
	Use:   "set-project <table> <project-id|none>",
	Short: "Assign a table to a project, or detach it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("table set-project", err)
		}
		defer st.Close()

		t, err := resolveTable(st, args[0])
		if err != nil {
			fail("table set-project", err)
		}

		var projectID *int64
		if args[1] != "none" {
			id, err := parseID(args[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, "table set-project:", err)
				os.Exit(exitUserError)
			}
			projectID = &id
		}

		if err := st.SetTableProject(t.ID, projectID); err != nil {
			fail("table set-project", err)
		}

		if projectID == nil {
			fmt.Printf("Table %d is now unassigned\n", t.ID)
		} else {
			fmt.Printf("Table %d is now in project %d\n", t.ID, *projectID)
		}
		return nil
	},
}

var tableDeleteCmd = &cobra.Command{
	Use:   "delete <table>",
	Short: "Delete a table and all of its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("table delete", err)
		}
		defer st.Close()

		t, err := resolveTable(st, args[0])
		if err != nil {
			fail("table delete", err)
		}

		if err := st.DeleteTable(t.ID); err != nil {
			fail("table delete", err)
		}

		fmt.Printf("Deleted table %d: %s\n", t.ID, t.Name)
		return nil
	},
}

func init() {
	tableCreateCmd.Flags().Int64Var(&tableCreateProject, "project", 0, "project id to place the table in")

	tableCmd.AddCommand(tableCreateCmd)
	tableCmd.AddCommand(tableListCmd)
	tableCmd.AddCommand(tableRenameCmd)
	tableCmd.AddCommand(tableSetProjectCmd)
	tableCmd.AddCommand(tableDeleteCmd)
}

// printTableTable prints tables in a human-readable table format.
func printTableTable(tables []types.Table) {
	if len(tables) == 0 {
		fmt.Println("No tables found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tPROJECT\tCREATED")
	for _, t := range tables {
		project := "-"
		if t.ProjectID != nil {
			project = fmt.Sprintf("%d", *t.ProjectID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, project, t.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Printf("Total: %d table(s)\n", len(tables))
}
