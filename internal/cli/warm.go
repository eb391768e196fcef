package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragchat/internal/setup"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Embed every chunk into the embedding cache",
	Long: `Chunk every configured document and embed the chunks ahead of time, so
the first requests against the vector route do not pay for it. Vectors are
stored in the bbolt cache at embedding.cache_path.

Examples:
  ragchat warm
  ragchat warm -d /path/to/project`,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	r, err := setup.NewRetrieval(cfg, GetRootDir(), &logger)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Printf("Embedding config: provider=%s, model=%s\n", cfg.Embedding.Provider, cfg.Embedding.Model)

	var bar *progressbar.ProgressBar
	var startTime time.Time

	progress := func(done, total int) {
		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		elapsed := time.Since(startTime)
		if done > 0 && elapsed > 0 {
			rate := float64(done) / elapsed.Seconds()
			eta := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
		}
	}

	result, err := r.Warm.Warm(cmd.Context(), progress)
	if err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}

	fmt.Printf("\nWarm-up complete:\n")
	fmt.Printf("  Chunks:  %d\n", result.Chunks)
	fmt.Printf("  Batches: %d\n", result.Batches)
	if cfg.Embedding.CachePath != "" {
		fmt.Printf("\nCache stored at: %s\n", cfg.Embedding.CachePath)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
