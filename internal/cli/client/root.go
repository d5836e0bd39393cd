package client

import (
	"github.com/cloo-solutions/mcqgen/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the mcqgen client command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcqgen",
		Short: "mcqgen CLI - multiple-choice questions from transcripts",
		Long: `mcqgen talks to an mcqgend server to generate, track and search
multiple-choice questions.

Environment variables:
  MCQGEN_API_KEY   API key for authentication (if the server requires one)
  MCQGEN_API_URL   API base URL (default: http://localhost:8080)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(GenerateCmd())
	rootCmd.AddCommand(StatusCmd())
	rootCmd.AddCommand(ListCmd())
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(SearchCmd())

	return rootCmd
}
