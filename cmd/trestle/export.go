// Export command for the trestle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/export"
)

var (
	exportOutput string
	exportView   int64
)

var exportCmd = &cobra.Command{
	Use:   "export <table>",
	Short: "Export a table's records as CSV",
	Long: `Export writes the records of a table as CSV: a header row with id and
the visible field names, then one row per record with display-formatted
values. The active view's search, filters, sort, and hidden fields
apply.

Example:
  trestle export Tasks
  trestle export Tasks -o tasks.csv
  trestle export Tasks --view 3 -o open.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			fail("export", err)
		}
		defer st.Close()

		sess, _, err := sessionFor(st, args[0])
		if err != nil {
			fail("export", err)
		}

		if exportView != 0 {
			if err := sess.SelectView(exportView); err != nil {
				fail("export", err)
			}
		}

		if exportOutput == "" {
			if err := export.CSV(os.Stdout, sess); err != nil {
				fail("export", err)
			}
			return nil
		}

		if err := export.CSVFile(exportOutput, sess); err != nil {
			fail("export", err)
		}
		fmt.Println("Exported to", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().Int64Var(&exportView, "view", 0, "view id to export through")
}
