package client

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/api/handlers"
	"github.com/spf13/cobra"
)

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored questions",
		Long:  "Finds previously generated questions semantically similar to the query.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := NewAPIClientWithCmd(cmd)

			req := handlers.SearchRequest{Query: strings.Join(args, " "), Limit: limit}
			var resp handlers.SearchResponse
			if err := api.Post(cmd.Context(), "/v1/questions/search", req, &resp); err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return writeJSON(out, resp)
			}

			if len(resp.Results) == 0 {
				fmt.Fprintln(out, "No results found.")
				return nil
			}

			fmt.Fprintf(out, "Found %d results:\n\n", len(resp.Results))
			for i, r := range resp.Results {
				fmt.Fprintf(out, "%d. %s (%.2f)\n", i+1, r.MCQ.Question, r.Similarity)
				fmt.Fprintf(out, "   Answer: %s\n", r.MCQ.CorrectAnswer())
				fmt.Fprintf(out, "   Set: %s\n", r.QuestionSetID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")

	return cmd
}
