package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/mcqgen/internal/cli"
	"github.com/cloo-solutions/mcqgen/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcqgend",
		Short: "MCQ generation daemon",
		Long:  "mcqgend serves the MCQ generation API, runs the background generation worker and manages the database schema",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
