// Package commands implements the layoutgen CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionString = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "layoutgen",
		Short: "layoutgen - AI page section generator",
		Long: `layoutgen generates page section layouts with a language model.

Every prompt is sent to several concurrent generation slots. Successful
slots produce a layout (sanitised HTML plus a JSON template), failed slots
are reported, and a batch in which every slot failed is rolled back.`,
		Version: versionString,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		// Unknown flags cause an error
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to layoutgen.yml")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newSuggestionsCmd())

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
