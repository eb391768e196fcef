package cli

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"ragchat/internal/api"
	"ragchat/internal/setup"
	"ragchat/internal/usecase"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve retrieval tools over MCP stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing two tools:
search_context ranks document chunks for a query, answer_with_context answers
a question grounded in them.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// SearchInput is the search_context tool input.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to rank document chunks against"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of chunks to return (default from config)"`
}

type SearchOutput struct {
	Chunks []usecase.ScoredChunkResult `json:"chunks"`
}

// AnswerInput is the answer_with_context tool input.
type AnswerInput struct {
	Question string `json:"question" jsonschema:"question to answer from the documents"`
}

type AnswerOutput struct {
	Response       string                      `json:"response"`
	RelevantChunks []usecase.ScoredChunkResult `json:"relevantChunks"`
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.Wire(ctx, GetConfig(), GetRootDir(), &logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	server := newMCPServer(deps.Retrieve, deps.Answer, GetConfig().Retrieve.TopK)

	err = server.Run(ctx, &mcp.StdioTransport{})
	if mcpStopped(ctx, err) {
		logger.Debug().Err(err).Msg("MCP server stopped")
		return nil
	}
	return err
}

// mcpStopped reports whether Run ended because stdin closed or a signal
// arrived rather than because of a failure.
func mcpStopped(ctx context.Context, err error) bool {
	return err == nil || errors.Is(err, io.EOF) || ctx.Err() != nil
}

func newMCPServer(retrieve *usecase.RetrieveUseCase, answer *usecase.AnswerUseCase, defaultTopK int) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ragchat",
		Version: api.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_context",
		Description: "Rank document chunks by cosine similarity to a query and return the best ones",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		k := input.TopK
		if k == 0 {
			k = defaultTopK
		}
		results, err := retrieve.Retrieve(ctx, input.Query, k)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		return nil, SearchOutput{Chunks: usecase.ToResults(results)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "answer_with_context",
		Description: "Answer a question with the most relevant document chunks in the system prompt",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input AnswerInput) (*mcp.CallToolResult, AnswerOutput, error) {
		out, err := answer.Ask(ctx, input.Question)
		if err != nil {
			return nil, AnswerOutput{}, err
		}
		return nil, AnswerOutput{
			Response:       out.Response,
			RelevantChunks: usecase.ToResults(out.RelevantChunks),
		}, nil
	})

	return server
}
