// Package main provides the trestle CLI, a command-line surface over the
// dynamic-table store: projects, tables, fields, records, views, CSV
// export, and zip backups.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
