package client

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/api/handlers"
	"github.com/spf13/cobra"
)

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a question set",
		Long:  "Shows the status of a queued question set and, once completed, its MCQs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)

			var set handlers.QuestionSetResponse
			if err := api.Get(cmd.Context(), "/v1/question-sets/"+url.PathEscape(args[0]), &set); err != nil {
				return fmt.Errorf("failed to get question set: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return writeJSON(out, set)
			}

			printSetSummary(out, &set)
			if len(set.MCQs) > 0 {
				fmt.Fprintln(out)
				printMCQs(out, set.MCQs)
				printStatistics(out, set.Statistics)
			}
			return nil
		},
	}
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List question sets",
		Long:  "Lists question sets, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)

			query := url.Values{}
			query.Set("limit", strconv.Itoa(limit))
			if cursor != "" {
				query.Set("cursor", cursor)
			}

			var page handlers.QuestionSetListResponse
			if err := api.Get(cmd.Context(), "/v1/question-sets?"+query.Encode(), &page); err != nil {
				return fmt.Errorf("failed to list question sets: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return writeJSON(out, page)
			}

			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No question sets found.")
				return nil
			}
			for _, set := range page.Items {
				printSetSummary(out, set)
			}
			if page.HasMore && page.Cursor != "" {
				fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 40))
				fmt.Fprintf(out, "More results available. Use --cursor %s\n", page.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of question sets")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

// ExportCmd creates the export command.
func ExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Get the export document of a question set",
		Long:  "Prints a download link for the exported question set, or saves it with --file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)

			var resp handlers.ExportResponse
			if err := api.Get(cmd.Context(), "/v1/question-sets/"+url.PathEscape(args[0])+"/export", &resp); err != nil {
				return fmt.Errorf("failed to get export: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputPath == "" {
				fmt.Fprintln(out, resp.URL)
				return nil
			}

			if err := api.DownloadFile(cmd.Context(), resp.URL, outputPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved export to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "file", "f", "", "Save the export document to this path")

	return cmd
}

func printSetSummary(w io.Writer, set *handlers.QuestionSetResponse) {
	fmt.Fprintf(w, "%s  %-10s  %3d mcqs  %s\n", set.ID, set.Status, set.MCQCount, set.CreatedAt)
	if set.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", set.Error)
	}
}
