package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"ragchat/internal/adapter/embedding"
	"ragchat/internal/domain"
	"ragchat/internal/port/mocks"
)

// stubEmbedder maps each known text to a fixed vector.
type stubEmbedder struct {
	vectors map[string][]float32
	jitter  bool

	mu    sync.Mutex
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int    { return 3 }
func (e *stubEmbedder) ModelName() string { return "stub" }

func chunksOf(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("c%d", i), Index: i, Text: text}
	}
	return chunks
}

func catDogEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		"cat sat": {1, 0, 0},
		"dog ran": {0, 1, 0},
	}}
}

func TestSearchCatDog(t *testing.T) {
	r := NewCosineRetriever(catDogEmbedder())

	results, err := r.Search(context.Background(), chunksOf("cat sat", "dog ran", "cat sat"), "cat sat", 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Index != 0 || results[1].Chunk.Index != 2 {
		t.Errorf("expected chunks 0 and 2 in order, got %d and %d", results[0].Chunk.Index, results[1].Chunk.Index)
	}
	for _, res := range results {
		if math.Abs(res.Score-1.0) > 1e-9 {
			t.Errorf("expected score 1.0, got %f", res.Score)
		}
		if res.Chunk.Text == "dog ran" {
			t.Error("dog ran should be excluded")
		}
	}
}

func TestSearchInvalidK(t *testing.T) {
	embedder := catDogEmbedder()
	r := NewCosineRetriever(embedder)

	for _, k := range []int{0, -1} {
		_, err := r.Search(context.Background(), chunksOf("cat sat"), "cat sat", k)
		if !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("k=%d: expected ErrInvalidParameter, got %v", k, err)
		}
	}
	if embedder.calls != 0 {
		t.Errorf("expected no embed calls for invalid k, got %d", embedder.calls)
	}
}

func TestSearchEmptyChunksSkipsEmbedder(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockEmbedder(ctrl)
	m.EXPECT().Embed(gomock.Any(), gomock.Any()).Times(0)

	results, err := NewCosineRetriever(m).Search(context.Background(), nil, "anything", 3)
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestSearchReturnsAllWhenKExceedsChunks(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":      {1, 0, 0},
		"near":   {0.9, 0.1, 0},
		"middle": {0.5, 0.5, 0},
		"far":    {0, 0, 1},
	}}
	r := NewCosineRetriever(embedder)

	results, err := r.Search(context.Background(), chunksOf("far", "near", "middle"), "q", 10)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"near", "middle", "far"}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, res := range results {
		if res.Chunk.Text != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], res.Chunk.Text)
		}
		if i > 0 && res.Score > results[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestSearchSelfSimilarity(t *testing.T) {
	r := NewCosineRetriever(embedding.NewMockEmbedder(64))
	text := "Retrieval augmented generation grounds answers in documents"

	results, err := r.Search(context.Background(), chunksOf("unrelated words here", text), text, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Chunk.Text != text {
		t.Fatalf("expected identical chunk first, got %q", results[0].Chunk.Text)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("expected self-similarity 1.0, got %f", results[0].Score)
	}
}

func TestSearchLengthMismatch(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":     {1, 0, 0},
		"short": {1, 0},
	}}

	_, err := NewCosineRetriever(embedder).Search(context.Background(), chunksOf("short"), "q", 1)
	if !errors.Is(err, domain.ErrEmbeddingLengthMismatch) {
		t.Errorf("expected ErrEmbeddingLengthMismatch, got %v", err)
	}
}

func TestSearchRejectsNaNEmbedding(t *testing.T) {
	nan := float32(math.NaN())
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":    {1, 0, 0},
		"good": {1, 0, 0},
		"bad":  {nan, 1, 0},
		"ok":   {0, 1, 0},
	}}

	_, err := NewCosineRetriever(embedder).Search(context.Background(), chunksOf("good", "bad", "ok"), "q", 3)
	if !errors.Is(err, domain.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestSearchEmbedderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockEmbedder(ctrl)
	m.EXPECT().Embed(gomock.Any(), []string{"q"}).Return(nil, errors.New("connection refused"))

	_, err := NewCosineRetriever(m).Search(context.Background(), chunksOf("a"), "q", 1)
	if !errors.Is(err, domain.ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected underlying message, got %v", err)
	}
}

func TestSearchBatchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockEmbedder(ctrl)
	m.EXPECT().Embed(gomock.Any(), []string{"q"}).Return([][]float32{{1, 0}}, nil)
	m.EXPECT().Embed(gomock.Any(), []string{"a", "b"}).Return([][]float32{{1, 0}}, nil)

	_, err := NewCosineRetriever(m, WithBatchSize(2)).Search(context.Background(), chunksOf("a", "b"), "q", 1)
	if !errors.Is(err, domain.ErrExternalService) {
		t.Errorf("expected ErrExternalService for short batch, got %v", err)
	}
}

func TestSearchBatchOrderIndependent(t *testing.T) {
	vectors := map[string][]float32{"q": {1, 0, 0}}
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk-%02d", i)
		angle := float64(i) * math.Pi / 2 / float64(len(texts))
		vectors[texts[i]] = []float32{float32(math.Cos(angle)), float32(math.Sin(angle)), 0}
	}

	sequential := NewCosineRetriever(&stubEmbedder{vectors: vectors}, WithBatchSize(len(texts)), WithConcurrency(1))
	want, err := sequential.Search(context.Background(), chunksOf(texts...), "q", 10)
	if err != nil {
		t.Fatal(err)
	}

	embedder := &stubEmbedder{vectors: vectors, jitter: true}
	parallel := NewCosineRetriever(embedder, WithBatchSize(3), WithConcurrency(8))
	for run := 0; run < 5; run++ {
		got, err := parallel.Search(context.Background(), chunksOf(texts...), "q", 10)
		if err != nil {
			t.Fatal(err)
		}
		for i := range want {
			if got[i].Chunk.ID != want[i].Chunk.ID {
				t.Fatalf("run %d position %d: expected %s, got %s", run, i, want[i].Chunk.ID, got[i].Chunk.ID)
			}
		}
	}

	// 1 query call + 14 batches per run
	if embedder.calls != 5*15 {
		t.Errorf("expected %d embed calls, got %d", 5*15, embedder.calls)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}

	if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); !errors.Is(err, domain.ErrEmbeddingLengthMismatch) {
		t.Errorf("expected ErrEmbeddingLengthMismatch, got %v", err)
	}
}
