// Root command for the trestle CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/paths"
	"github.com/mesh-intelligence/trestle/pkg/trestle"
)

// Exit codes: 0 success, 1 user error (bad input, unknown entity),
// 2 system error (storage or I/O failure).
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

var rootCmd = &cobra.Command{
	Use:     "trestle",
	Short:   "Trestle is a local-first tabular workspace",
	Version: trestle.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		cliConfig.RecordLimit = cfg.GetInt(cfgKeyRecordLimit)
		cliConfig.TrueLabel = cfg.GetString(cfgKeyTrueLabel)
		cliConfig.FalseLabel = cfg.GetString(cfgKeyFalseLabel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.trestle-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(fieldCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
}

// resolveDataDir returns the data directory path following the precedence
// --data-dir flag > config.yaml data_dir > TRESTLE_DATA_DIR env > default
// $(CWD)/.trestle-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence --config-dir flag > TRESTLE_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
