package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/domain"
	"ragchat/internal/port"
	"ragchat/internal/port/mocks"
	"ragchat/internal/usecase"
)

func executeCommand(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile, rootDir = "", ""
		chunkSize, chunkOverlap, chunkJSON = 0, -1, false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestChunkCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letters.txt")
	if err := os.WriteFile(path, []byte("ABCDEFGHIJ"), 0644); err != nil {
		t.Fatal(err)
	}

	out := executeCommand(t, "chunk", "--dir", dir, "--size", "4", "--overlap", "2", path)

	for _, want := range []string{"ABCD", "CDEF", "EFGH", "GHIJ", "[6, 10)", "4 chunks from 1 documents"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestChunkCommandJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data", "a.txt"), []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	out := executeCommand(t, "chunk", "--dir", dir, "--size", "6", "--overlap", "0", "--json")

	var chunks []domain.Chunk
	if err := json.Unmarshal([]byte(out), &chunks); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(chunks) != 2 || chunks[0].Text != "hello " || chunks[1].DocID != "a.txt" {
		t.Errorf("unexpected chunks %+v", chunks)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%s) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

type staticLoader []domain.Document

func (l staticLoader) Load() ([]domain.Document, error) { return l, nil }

func connectMCP(t *testing.T, completer port.Completer) *mcp.ClientSession {
	t.Helper()
	nop := zerolog.Nop()

	windows, err := chunker.NewWindowChunker(30, 0)
	if err != nil {
		t.Fatal(err)
	}
	retrieve := usecase.NewRetrieveUseCase(
		staticLoader{{ID: "kb.txt", Text: "cats purr and chase mice daily" + "dogs bark at the mail carrier!"}},
		windows,
		retriever.NewCosineRetriever(embedding.NewMockEmbedder(64)),
		0,
		&nop,
	)
	prompts, err := usecase.NewPrompts("English")
	if err != nil {
		t.Fatal(err)
	}
	answer := usecase.NewAnswerUseCase(retrieve, completer, prompts, 1, usecase.Generation{}, &nop)

	server := newMCPServer(retrieve, answer, 2)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestMCPSearchContext(t *testing.T) {
	session := connectMCP(t, mocks.NewMockCompleter(gomock.NewController(t)))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_context",
		Arguments: map[string]any{"query": "why do dogs bark"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %+v", result.Content)
	}

	data, _ := json.Marshal(result.StructuredContent)
	var out SearchOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("expected default of 2 chunks, got %d", len(out.Chunks))
	}
	if !strings.Contains(out.Chunks[0].Text, "dogs") {
		t.Errorf("expected dog chunk first, got %q", out.Chunks[0].Text)
	}
}

func TestMCPAnswerWithContext(t *testing.T) {
	completer := mocks.NewMockCompleter(gomock.NewController(t))
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(&port.CompletionResponse{Content: "They bark at the mail carrier."}, nil)
	session := connectMCP(t, completer)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "answer_with_context",
		Arguments: map[string]any{"question": "who do dogs bark at"},
	})
	if err != nil {
		t.Fatal(err)
	}

	data, _ := json.Marshal(result.StructuredContent)
	var out AnswerOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Response != "They bark at the mail carrier." || len(out.RelevantChunks) != 1 {
		t.Errorf("unexpected answer %+v", out)
	}
}

func TestMCPStopped(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want bool
	}{
		{"clean exit", context.Background(), nil, true},
		{"stdin closed", context.Background(), io.EOF, true},
		{"wrapped eof", context.Background(), fmt.Errorf("reading message: %w", io.EOF), true},
		{"signal", cancelled, errors.New("connection reset"), true},
		{"failure", context.Background(), errors.New("server is closing: bad frame"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mcpStopped(tt.ctx, tt.err); got != tt.want {
				t.Errorf("mcpStopped(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
