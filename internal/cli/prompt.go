package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/setup"
	"ragchat/internal/usecase"
)

var (
	promptQuestion string
	promptTopK     int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the retrieval system prompt",
	Long: `Rank chunks for the question and print the system prompt that would be
sent, without calling the completion model. Useful for manual orchestration.

Examples:
  ragchat prompt -q "opening hours"
  ragchat prompt -q "opening hours" -k 4`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuestion, "query", "q", "", "question (required)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of chunks (default from config)")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	r, err := setup.NewRetrieval(GetConfig(), GetRootDir(), &logger)
	if err != nil {
		return err
	}
	defer r.Close()

	topK := GetConfig().Retrieve.TopK
	if promptTopK > 0 {
		topK = promptTopK
	}

	results, err := r.Retrieve.Retrieve(cmd.Context(), promptQuestion, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	system, err := r.Prompts.Retrieval(usecase.BuildContext(results))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), system)
	return nil
}
