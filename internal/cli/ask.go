package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/setup"
	"ragchat/internal/usecase"
)

var (
	askQuestion string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the documents",
	Long: `Retrieve the chunks most similar to the question and ask the completion
model with them in the system prompt.

Examples:
  ragchat ask -q "where is parking available?"
  ragchat ask -q "opening hours" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "query", "q", "", "question (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

type askOutput struct {
	Response       string                      `json:"response"`
	Model          string                      `json:"model,omitempty"`
	RelevantChunks []usecase.ScoredChunkResult `json:"relevantChunks"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	deps, err := setup.Wire(cmd.Context(), GetConfig(), GetRootDir(), &logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	answer, err := deps.Answer.Ask(cmd.Context(), askQuestion)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(askOutput{
			Response:       answer.Response,
			Model:          answer.Model,
			RelevantChunks: usecase.ToResults(answer.RelevantChunks),
		}, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer.Response)
	fmt.Fprintln(cmd.OutOrStdout())
	for i, r := range usecase.ToResults(answer.RelevantChunks) {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s:%d-%d (score: %.2f)\n", i+1, r.DocID, r.Start, r.End, r.Score)
	}
	return nil
}
