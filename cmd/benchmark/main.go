package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ragchat/config"
	"ragchat/internal/domain"
	"ragchat/internal/setup"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding ragchat.yaml and the documents")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of results")
	runs := flag.Int("runs", 3, "Repeat the search to measure cache hits")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./tmp -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Cold and cached retrieval latency")
		fmt.Println("  2. Semantic similarity (query vs results)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	logger := setup.NewLogger("warn", "console")
	r, err := setup.NewRetrieval(cfg, *dir, &logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval not available: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	chunks, err := r.Retrieve.Chunks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading documents: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks: %d (size %d, overlap %d)\n", len(chunks), cfg.Chunking.Size, cfg.Chunking.Overlap)
	fmt.Printf("Model: %s (%s)\n", r.Embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", r.Embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	var results []domain.ScoredChunk
	for run := 1; run <= *runs; run++ {
		start := time.Now()
		results, err = r.Retrieve.Retrieve(context.Background(), *query, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Run %d: %s\n", run, time.Since(start).Round(time.Microsecond))
	}
	fmt.Println()

	if len(results) == 0 {
		fmt.Println("No documents to search.")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, res := range results {
		preview := []rune(res.Chunk.Text)
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}

		totalScore += res.Score
		fmt.Printf("%d. [%s %.3f] %s [%d, %d)\n", i+1, rating(res.Score), res.Score, res.Chunk.DocID, res.Chunk.Start, res.Chunk.End())
		fmt.Printf("   %s\n\n", strings.ReplaceAll(string(preview), "\n", " "))
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - try another embedding model or chunk size")
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}
