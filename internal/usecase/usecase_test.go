package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/adapter/tools"
	"ragchat/internal/domain"
	"ragchat/internal/port"
	"ragchat/internal/port/mocks"
)

var nopLogger = zerolog.Nop()

type staticLoader []domain.Document

func (l staticLoader) Load() ([]domain.Document, error) { return l, nil }

func testPrompts(t *testing.T) *Prompts {
	t.Helper()
	p, err := NewPrompts("English")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func testRetrieve(t *testing.T, docs ...domain.Document) *RetrieveUseCase {
	t.Helper()
	c, err := chunker.NewWindowChunker(60, 0)
	if err != nil {
		t.Fatal(err)
	}
	r := retriever.NewCosineRetriever(embedding.NewMockEmbedder(128), retriever.WithBatchSize(2))
	return NewRetrieveUseCase(staticLoader(docs), c, r, 0, &nopLogger)
}

// knowledge holds one sentence per 60-rune chunk.
var knowledge = pad60("Shibuya station is served by many railway lines in Tokyo.") +
	pad60("Go channels let goroutines communicate by passing values.") +
	pad60("Bread dough needs time to rise before it goes into ovens.")

func pad60(s string) string {
	return s + strings.Repeat(" ", 60-len(s))
}

func TestRetrieveRanksChunks(t *testing.T) {
	u := testRetrieve(t, domain.Document{ID: "kb", Text: knowledge})

	chunks, err := u.Chunks()
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	results, err := u.Retrieve(context.Background(), "how do goroutines communicate with channels", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Chunk.Text, "goroutines") {
		t.Errorf("expected the Go chunk first, got %+v", results)
	}

	if _, err := u.Retrieve(context.Background(), "q", 0); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestAnswerUsesRetrievedContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	var sent port.CompletionRequest
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
			sent = req
			return &port.CompletionResponse{Content: "Many lines.", Model: "gpt-4o-mini"}, nil
		})

	u := NewAnswerUseCase(testRetrieve(t, domain.Document{ID: "kb", Text: knowledge}), completer, testPrompts(t), 2,
		Generation{Temperature: 0.7}, &nopLogger)

	answer, err := u.AskMessages(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleUser, Content: "which railway lines serve Shibuya station"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if answer.Response != "Many lines." {
		t.Errorf("unexpected response %q", answer.Response)
	}
	if len(answer.RelevantChunks) != 2 {
		t.Fatalf("expected 2 relevant chunks, got %d", len(answer.RelevantChunks))
	}

	if len(sent.Messages) != 2 || sent.Messages[0].Role != domain.RoleSystem {
		t.Fatalf("expected system + user messages, got %+v", sent.Messages)
	}
	if !strings.Contains(sent.Messages[0].Content, BuildContext(answer.RelevantChunks)) {
		t.Error("system prompt should embed the assembled context")
	}
	if sent.Messages[1].Content != "which railway lines serve Shibuya station" {
		t.Errorf("expected last message as the question, got %q", sent.Messages[1].Content)
	}
	if sent.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %f", sent.Temperature)
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	u := NewAnswerUseCase(testRetrieve(t), mocks.NewMockCompleter(ctrl), testPrompts(t), 2, Generation{}, &nopLogger)

	if _, err := u.AskMessages(context.Background(), nil); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := u.Ask(context.Background(), ""); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestChatTrimsHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
			if got := contents(req.Messages); got != "bb,cc" {
				t.Errorf("expected trimmed history [bb,cc], got [%s]", got)
			}
			if req.MaxTokens != 1000 {
				t.Errorf("expected max tokens 1000, got %d", req.MaxTokens)
			}
			return &port.CompletionResponse{Content: "ok"}, nil
		})

	u := NewChatUseCase(completer, runeEstimator{}, 5, testPrompts(t), Generation{MaxTokens: 1000})
	resp, err := u.Chat(context.Background(), msgs("aaaa", "bb", "cc"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "ok" {
		t.Errorf("unexpected response %q", resp.Content)
	}

	if _, err := u.Chat(context.Background(), msgs("much too long")); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter when nothing fits, got %v", err)
	}
}

func TestAssistPrependsGuidelines(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
			if len(req.Messages) != 2 || req.Messages[0].Role != domain.RoleSystem {
				t.Errorf("expected system prompt first, got %+v", req.Messages)
			}
			return &port.CompletionResponse{Content: "ok"}, nil
		})

	u := NewChatUseCase(completer, runeEstimator{}, 4000, testPrompts(t), Generation{})
	if _, err := u.Assist(context.Background(), msgs("hello")); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryRemembersTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	var prompts []string
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
			prompts = append(prompts, req.Messages[0].Content)
			return &port.CompletionResponse{Content: "reply " + string(rune('A'+len(prompts)-1))}, nil
		}).Times(3)

	sessions := memstore.NewSessionStore(0)
	u := NewMemoryUseCase(completer, sessions, testPrompts(t), Generation{})
	ctx := context.Background()

	if _, err := u.Send(ctx, "s1", "I'm John"); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Send(ctx, "s1", "What's my name?"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompts[1], "Human: I'm John") || !strings.Contains(prompts[1], "AI: reply A") {
		t.Errorf("second prompt should carry history:\n%s", prompts[1])
	}

	if _, err := u.Send(ctx, "s2", "Fresh start"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(prompts[2], "John") {
		t.Error("sessions must not share history")
	}

	history, err := u.History(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 4 {
		t.Errorf("expected 4 stored turns, got %d", len(history))
	}

	if err := u.Clear(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	history, _ = u.History(ctx, "s1")
	if len(history) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(history))
	}
}

func TestMemoryFailedCompletionKeepsHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(nil, domain.ErrExternalService)

	sessions := mocks.NewMockSessionStore(ctrl)
	sessions.EXPECT().Get(gomock.Any(), "s1").Return(nil, domain.ErrSessionNotFound)
	sessions.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	u := NewMemoryUseCase(completer, sessions, testPrompts(t), Generation{})
	if _, err := u.Send(context.Background(), "s1", "hi"); !errors.Is(err, domain.ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}

func TestStreamAppendsQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Stream(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req port.CompletionRequest, cb port.StreamCallback) (*port.CompletionResponse, error) {
			last := req.Messages[len(req.Messages)-1]
			if last.Role != domain.RoleUser || last.Content != "Where do I live?" {
				t.Errorf("expected question as final user turn, got %+v", last)
			}
			if req.Messages[0].Role != domain.RoleSystem {
				t.Errorf("expected few-shot system message first")
			}
			for _, part := range []string{"Shibuya", " 3-chome"} {
				if err := cb(part); err != nil {
					return nil, err
				}
			}
			return &port.CompletionResponse{Content: "Shibuya 3-chome"}, nil
		})

	var got strings.Builder
	u := NewStreamUseCase(completer, Generation{})
	_, err := u.Stream(context.Background(), "Where do I live?", func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "Shibuya 3-chome" {
		t.Errorf("unexpected streamed text %q", got.String())
	}

	if _, err := u.Stream(context.Background(), "", nil); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestFunctionCallingRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	call := domain.ToolCall{ID: "call_1", Name: "get_current_weather", Arguments: `{"location":"Tokyo"}`}
	gomock.InOrder(
		completer.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
				if len(req.Tools) != 1 || req.Tools[0].Name != "get_current_weather" {
					t.Errorf("expected weather tool offered, got %+v", req.Tools)
				}
				return &port.CompletionResponse{ToolCalls: []domain.ToolCall{call}, StopReason: "tool_calls"}, nil
			}),
		completer.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
				if len(req.Tools) != 0 {
					t.Error("follow-up should not offer tools")
				}
				if len(req.Messages) != 3 {
					t.Fatalf("expected user, assistant, tool messages, got %+v", req.Messages)
				}
				toolMsg := req.Messages[2]
				if toolMsg.Role != domain.RoleTool || toolMsg.ToolCallID != "call_1" {
					t.Errorf("unexpected tool message %+v", toolMsg)
				}
				if !strings.Contains(toolMsg.Content, `"temperature":"22"`) {
					t.Errorf("expected weather output, got %s", toolMsg.Content)
				}
				return &port.CompletionResponse{Content: "It is sunny and 22 degrees in Tokyo."}, nil
			}),
	)

	u := NewFunctionUseCase(completer, tools.NewDefaultRegistry(), Generation{Model: "gpt-4"}, &nopLogger)
	result, err := u.Run(context.Background(), msgs("What's the weather in Tokyo?"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Response.Content != "It is sunny and 22 degrees in Tokyo." {
		t.Errorf("unexpected final content %q", result.Response.Content)
	}
	if len(result.ToolCalls) != 1 {
		t.Errorf("expected tool call recorded, got %+v", result.ToolCalls)
	}
}

func TestFunctionCallingWithoutTools(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(&port.CompletionResponse{Content: "hello"}, nil)

	u := NewFunctionUseCase(completer, tools.NewDefaultRegistry(), Generation{}, &nopLogger)
	result, err := u.Run(context.Background(), msgs("hi"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Response.Content != "hello" || len(result.ToolCalls) != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestFunctionCallingUnknownTool(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(&port.CompletionResponse{
		ToolCalls: []domain.ToolCall{{ID: "c", Name: "launch_rockets", Arguments: "{}"}},
	}, nil)

	u := NewFunctionUseCase(completer, tools.NewDefaultRegistry(), Generation{}, &nopLogger)
	if _, err := u.Run(context.Background(), msgs("go")); !errors.Is(err, domain.ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

type countingEmbedder struct {
	*embedding.MockEmbedder
	texts int
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.texts += len(texts)
	return e.MockEmbedder.Embed(ctx, texts)
}

func TestWarmEmbedsEveryChunk(t *testing.T) {
	retrieve := testRetrieve(t, domain.Document{ID: "kb", Text: knowledge})
	chunks, _ := retrieve.Chunks()

	embedder := &countingEmbedder{MockEmbedder: embedding.NewMockEmbedder(16)}
	var last int
	result, err := NewWarmUseCase(retrieve, embedder, 2).Warm(context.Background(), func(done, total int) {
		if done < last || total != len(chunks) {
			t.Errorf("bad progress %d/%d", done, total)
		}
		last = done
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Chunks != len(chunks) || embedder.texts != len(chunks) {
		t.Errorf("expected %d chunks embedded, got result %+v and %d texts", len(chunks), result, embedder.texts)
	}
	if last != len(chunks) {
		t.Errorf("expected final progress %d, got %d", len(chunks), last)
	}
}
