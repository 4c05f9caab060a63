// Package cli implements the refbundle command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "refbundle",
	Short: "Bundle cross-referencing schema documents",
	Long: `refbundle resolves "$ref" pointers across YAML and JSON interface
definition documents and writes self-contained bundles next to them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./refbundle.toml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every inlined type")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
