package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/api/handlers"
	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/spf13/cobra"
)

// GenerateCmd creates the generate command.
func GenerateCmd() *cobra.Command {
	var (
		maxMCQs        int
		minDistractors int
		async          bool
	)

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate MCQs from a transcript",
		Long: `Generates multiple-choice questions from a transcript file, or from stdin
when the file is omitted or "-". With --async the transcript is queued and the
question set ID is printed; poll it with "mcqgen status".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			transcript, err := readTranscript(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			req := handlers.GenerateRequest{
				Transcript:     transcript,
				MaxMCQs:        &maxMCQs,
				MinDistractors: &minDistractors,
			}

			api := NewAPIClientWithCmd(cmd)
			outputJSON, _ := cmd.Flags().GetBool("output")
			out := cmd.OutOrStdout()

			if async {
				var set handlers.QuestionSetResponse
				if err := api.Post(cmd.Context(), "/v1/question-sets", req, &set); err != nil {
					return fmt.Errorf("submit failed: %w", err)
				}
				if outputJSON {
					return writeJSON(out, set)
				}
				fmt.Fprintf(out, "Queued question set %s (%s)\n", set.ID, set.Status)
				return nil
			}

			var resp handlers.GenerateResponse
			if err := api.PostRaw(cmd.Context(), "/v1/mcqs/generate", req, &resp); err != nil {
				return fmt.Errorf("generate failed: %w", err)
			}
			if outputJSON {
				return writeJSON(out, resp)
			}
			printMCQs(out, resp.MCQs)
			printStatistics(out, &resp.Statistics)
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxMCQs, "max-mcqs", "n", service.DefaultMaxItems, "Maximum number of MCQs")
	cmd.Flags().IntVar(&minDistractors, "min-distractors", service.DefaultMinDistractors, "Minimum distractors per MCQ (0-3)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the transcript instead of waiting for the result")

	return cmd
}

func readTranscript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}

	transcript := strings.TrimSpace(string(data))
	if transcript == "" {
		return "", fmt.Errorf("transcript is empty")
	}
	return transcript, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMCQs(w io.Writer, mcqs []domain.MCQ) {
	if len(mcqs) == 0 {
		fmt.Fprintln(w, "No MCQs generated.")
		return
	}

	for i, m := range mcqs {
		fmt.Fprintf(w, "%d. %s [%s, %s, %.2f]\n", i+1, m.Question, m.Difficulty, m.QuestionType, m.Confidence)
		for _, o := range m.Options {
			marker := " "
			if o.Letter == m.CorrectOption {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s) %s\n", marker, o.Letter, o.Text)
		}
		if i < len(mcqs)-1 {
			fmt.Fprintln(w)
		}
	}
}

func printStatistics(w io.Writer, stats *domain.Statistics) {
	if stats == nil || stats.TotalMCQs == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total: %d  Avg confidence: %.2f\n", stats.TotalMCQs, stats.AverageConfidence)
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		fmt.Fprintf(w, "  %s: %d\n", d, stats.DifficultyDistribution[d])
	}
}
