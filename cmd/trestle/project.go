// Project commands for the trestle CLI.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

var (
	projectCreateParent int64
	projectCreateColor  string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("project create", err)
		}
		defer st.Close()

		var parentID *int64
		if projectCreateParent != 0 {
			parentID = &projectCreateParent
		}

		p, err := st.CreateProject(args[0], projectCreateColor, parentID)
		if err != nil {
			fail("project create", err)
		}

		if flagJSON {
			return printJSON(p)
		}
		fmt.Printf("Created project %d: %s\n", p.ID, p.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("project list", err)
		}
		defer st.Close()

		projects, err := st.ListProjects()
		if err != nil {
			fail("project list", err)
		}

		if flagJSON {
			return printJSON(projects)
		}
		printProjectTable(projects)
		return nil
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "project rename:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("project rename", err)
		}
		defer st.Close()

		name := args[1]
		p, err := st.UpdateProject(id, store.ProjectUpdate{Name: &name})
		if err != nil {
			fail("project rename", err)
		}

		if flagJSON {
			return printJSON(p)
		}
		fmt.Printf("Renamed project %d to %s\n", p.ID, p.Name)
		return nil
	},
}

var projectSetParentCmd = &cobra.Command{
	Use:   "set-parent <id> <parent-id|none>",
	Short: "Move a project under another project, or detach it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "project set-parent:", err)
			os.Exit(exitUserError)
		}

		upd := store.ProjectUpdate{SetParent: true}
		if args[1] != "none" {
			parentID, err := parseID(args[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, "project set-parent:", err)
				os.Exit(exitUserError)
			}
			upd.ParentID = &parentID
		}

		st, err := openStore()
		if err != nil {
			fail("project set-parent", err)
		}
		defer st.Close()

		p, err := st.UpdateProject(id, upd)
		if err != nil {
			fail("project set-parent", err)
		}

		if flagJSON {
			return printJSON(p)
		}
		if p.ParentID == nil {
			fmt.Printf("Project %d is now top-level\n", p.ID)
		} else {
			fmt.Printf("Project %d is now under project %d\n", p.ID, *p.ParentID)
		}
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project (its tables and children are detached)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "project delete:", err)
			os.Exit(exitUserError)
		}

		st, err := openStore()
		if err != nil {
			fail("project delete", err)
		}
		defer st.Close()

		if err := st.DeleteProject(id); err != nil {
			fail("project delete", err)
		}

		fmt.Printf("Deleted project %d\n", id)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().Int64Var(&projectCreateParent, "parent", 0, "parent project id")
	projectCreateCmd.Flags().StringVar(&projectCreateColor, "color", "", "display color (hex)")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectRenameCmd)
	projectCmd.AddCommand(projectSetParentCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

// printProjectTable prints projects in a human-readable table format.
func printProjectTable(projects []types.Project) {
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tPARENT\tCOLOR")
	for _, p := range projects {
		parent := "-"
		if p.ParentID != nil {
			parent = fmt.Sprintf("%d", *p.ParentID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, parent, p.Color)
	}
	w.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Printf("Total: %d project(s)\n", len(projects))
}
