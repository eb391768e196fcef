package setup

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"ragchat/config"
	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/cache"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/adapter/redisstore"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/adapter/store"
	"ragchat/internal/adapter/tools"
	"ragchat/internal/api"
	"ragchat/internal/port"
	"ragchat/internal/usecase"
)

// Retrieval is the part of the graph that needs no completion model.
type Retrieval struct {
	Embedder port.Embedder
	Chunker  port.Chunker
	Retrieve *usecase.RetrieveUseCase
	Warm     *usecase.WarmUseCase
	Prompts  *usecase.Prompts

	closers []func() error
}

// Dependencies is the fully wired service.
type Dependencies struct {
	*Retrieval

	Completer port.Completer
	Sessions  port.SessionStore
	Answer    *usecase.AnswerUseCase
	Handler   *api.Handler
	Logger    *zerolog.Logger
}

// Close releases stores in reverse order of creation.
func (r *Retrieval) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// NewRetrieval wires documents under dir, the chunker, the cached embedder and
// the cosine retriever.
func NewRetrieval(cfg *config.Config, dir string, logger *zerolog.Logger) (*Retrieval, error) {
	r := &Retrieval{}

	prompts, err := usecase.NewPrompts(cfg.Prompt.Language)
	if err != nil {
		return nil, err
	}
	r.Prompts = prompts

	base, err := NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	embeddingCache, err := r.openEmbeddingCache(cfg.Embedding, dir, base, logger)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.Embedder = embedding.NewCachedEmbedder(base, embeddingCache)

	windows, err := chunker.NewWindowChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.Chunker = cache.NewCachedChunker(
		windows,
		cache.NewChunkCache(cfg.Chunking.CacheSize, cfg.Chunking.CacheTTL),
		cfg.Chunking.Size,
		cfg.Chunking.Overlap,
	)

	loader := fs.NewLoader(
		config.ResolvePath(dir, cfg.Documents.Root),
		fs.NewWalker(cfg.Documents.Includes, cfg.Documents.Excludes),
	)
	cosine := retriever.NewCosineRetriever(r.Embedder,
		retriever.WithBatchSize(cfg.Retrieve.BatchSize),
		retriever.WithConcurrency(cfg.Retrieve.Concurrency),
	)

	r.Retrieve = usecase.NewRetrieveUseCase(loader, r.Chunker, cosine, cfg.Retrieve.Timeout, logger)
	r.Warm = usecase.NewWarmUseCase(r.Retrieve, r.Embedder, cfg.Retrieve.BatchSize)
	return r, nil
}

func (r *Retrieval) openEmbeddingCache(cfg config.EmbeddingConfig, dir string, embedder port.Embedder, logger *zerolog.Logger) (port.EmbeddingCache, error) {
	if cfg.CachePath == "" {
		return memstore.NewEmbeddingCache(), nil
	}

	path := config.ResolvePath(dir, cfg.CachePath)
	if err := config.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	st, err := store.NewBoltStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	r.closers = append(r.closers, st.Close)

	result, err := st.Prepare(embedder.ModelName(), embedder.Dimension())
	if err != nil {
		return nil, err
	}
	if result.NeedsRebuild {
		logger.Warn().Str("reason", result.Reason).Msg("embedding cache cleared")
	}

	logger.Debug().Str("path", path).Msg("embedding cache opened")
	return st, nil
}

// Wire builds every collaborator the HTTP service needs.
func Wire(ctx context.Context, cfg *config.Config, dir string, logger *zerolog.Logger) (*Dependencies, error) {
	retrieval, err := NewRetrieval(cfg, dir, logger)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Retrieval: retrieval, Logger: logger}

	deps.Completer, err = NewCompleter(ctx, cfg.Completion)
	if err != nil {
		retrieval.Close()
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	deps.Sessions, err = deps.openSessions(ctx, cfg.Session, logger)
	if err != nil {
		retrieval.Close()
		return nil, err
	}

	estimator, err := analyzer.NewEstimator(cfg.History.Estimator)
	if err != nil {
		retrieval.Close()
		return nil, err
	}

	gen := usecase.Generation{
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	}
	toolGen := gen
	if cfg.Completion.Provider == "openai" {
		toolGen.Model = cfg.Completion.ToolModel
	}

	deps.Answer = usecase.NewAnswerUseCase(retrieval.Retrieve, deps.Completer, retrieval.Prompts, cfg.Retrieve.TopK, gen, logger)
	deps.Handler = api.NewHandler(
		usecase.NewChatUseCase(deps.Completer, estimator, cfg.History.TokenBudget, retrieval.Prompts, gen),
		usecase.NewStreamUseCase(deps.Completer, gen),
		usecase.NewMemoryUseCase(deps.Completer, deps.Sessions, retrieval.Prompts, gen),
		usecase.NewFunctionUseCase(deps.Completer, tools.NewDefaultRegistry(), toolGen, logger),
		deps.Answer,
		logger,
	)

	return deps, nil
}

func (d *Dependencies) openSessions(ctx context.Context, cfg config.SessionConfig, logger *zerolog.Logger) (port.SessionStore, error) {
	if cfg.Store != "redis" {
		return memstore.NewSessionStore(cfg.TTL), nil
	}

	client, err := redisstore.Connect(ctx, logger, cfg.RedisAddr, os.Getenv(cfg.RedisPasswordEnv), cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, client.Close)

	return redisstore.NewSessionStore(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewEmbedder creates the embedding client for the configured provider.
func NewEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
		}
		return embedding.NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "deepseek":
		return embedding.NewDeepSeekEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "jina":
		return embedding.NewJinaEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// NewCompleter creates the completion client for the configured provider.
func NewCompleter(ctx context.Context, cfg config.CompletionConfig) (port.Completer, error) {
	switch cfg.Provider {
	case "openai":
		return llm.NewOpenAICompleter(os.Getenv(cfg.APIKeyEnv), cfg.Model, cfg.BaseURL)
	case "bedrock":
		return llm.NewBedrockCompleter(ctx, cfg.Region, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}
