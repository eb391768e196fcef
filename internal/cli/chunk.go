package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/config"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/domain"
)

var (
	chunkSize    int
	chunkOverlap int
	chunkJSON    bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Show how documents are split",
	Long: `Split a file, or every configured document when no file is given, and
print each chunk with its rune offsets.

Examples:
  ragchat chunk data/context.txt
  ragchat chunk --size 200 --overlap 20 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "chunk size in runes (default from config)")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "overlap in runes (default from config)")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output as JSON")
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	size, overlap := cfg.Chunking.Size, cfg.Chunking.Overlap
	if chunkSize > 0 {
		size = chunkSize
	}
	if chunkOverlap >= 0 {
		overlap = chunkOverlap
	}

	var docs []domain.Document
	if len(args) > 0 {
		doc, err := fs.ReadDocument(args[0])
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	} else {
		loader := fs.NewLoader(
			config.ResolvePath(GetRootDir(), cfg.Documents.Root),
			fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes),
		)
		var err error
		if docs, err = loader.Load(); err != nil {
			return err
		}
	}

	var all []domain.Chunk
	for _, doc := range docs {
		chunks, err := chunker.Split(doc, size, overlap)
		if err != nil {
			return err
		}
		all = append(all, chunks...)
	}

	if chunkJSON {
		output, _ := json.MarshalIndent(all, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}

	for _, c := range all {
		fmt.Fprintf(cmd.OutOrStdout(), "--- %s #%d [%d, %d) ---\n", c.DocID, c.Index, c.Start, c.End())
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(c.Text))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d chunks from %d documents\n", len(all), len(docs))
	return nil
}
