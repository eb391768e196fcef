package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

const Version = "1.0.0"

const historyCleared = "Conversation history cleared."

type Handler struct {
	chat     *usecase.ChatUseCase
	stream   *usecase.StreamUseCase
	memory   *usecase.MemoryUseCase
	function *usecase.FunctionUseCase
	answer   *usecase.AnswerUseCase
	logger   *zerolog.Logger
}

func NewHandler(
	chat *usecase.ChatUseCase,
	stream *usecase.StreamUseCase,
	memory *usecase.MemoryUseCase,
	function *usecase.FunctionUseCase,
	answer *usecase.AnswerUseCase,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		chat:     chat,
		stream:   stream,
		memory:   memory,
		function: function,
		answer:   answer,
		logger:   logger,
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Chat handles POST /api/v1/chat
func (h *Handler) Chat(req *restful.Request, resp *restful.Response) {
	body, ok := h.readMessages(req, resp)
	if !ok {
		return
	}

	out, err := h.chat.Chat(req.Request.Context(), body.DomainMessages())
	if err != nil {
		h.fail(resp, "chat completion failed", err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, ChatResponse{
		Choices: choiceFrom(out.Content, out.StopReason),
		Model:   out.Model,
	})
}

// Assistant handles POST /api/v1/assistant
func (h *Handler) Assistant(req *restful.Request, resp *restful.Response) {
	body, ok := h.readMessages(req, resp)
	if !ok {
		return
	}

	out, err := h.chat.Assist(req.Request.Context(), body.DomainMessages())
	if err != nil {
		h.fail(resp, "assistant completion failed", err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, ChatResponse{
		Choices: choiceFrom(out.Content, out.StopReason),
		Model:   out.Model,
	})
}

// Stream handles POST /api/v1/stream. The answer is written as plain text
// chunks, or as server-sent events when the client accepts them.
func (h *Handler) Stream(req *restful.Request, resp *restful.Response) {
	var body StreamRequest
	if err := req.ReadEntity(&body); err != nil {
		HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		HandleError(resp, fmt.Errorf("%w: question is required", domain.ErrInvalidParameter), http.StatusBadRequest)
		return
	}

	flusher, ok := resp.ResponseWriter.(http.Flusher)
	if !ok {
		HandleError(resp, fmt.Errorf("streaming not supported"), http.StatusInternalServerError)
		return
	}

	if strings.Contains(req.HeaderParameter("Accept"), "text/event-stream") {
		h.streamEvents(req, resp, flusher, body.Question)
		return
	}

	resp.Header().Set("Content-Type", "text/plain; charset=utf-8")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	_, err := h.stream.Stream(req.Request.Context(), body.Question, func(chunk string) error {
		if _, err := fmt.Fprint(resp.ResponseWriter, chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("stream aborted")
	}
}

func (h *Handler) streamEvents(req *restful.Request, resp *restful.Response, flusher http.Flusher, question string) {
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	// writeErr is set once the client stops reading; nothing is written after it.
	var writeErr error
	send := func(event SSEEvent) error {
		if writeErr != nil {
			return writeErr
		}
		formatted, err := event.Format()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(resp.ResponseWriter, formatted); err != nil {
			writeErr = err
			h.logger.Warn().Err(err).Msg("client disconnected from stream")
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send(SSEEvent{Event: "start", Data: StreamStartEvent{Model: h.stream.ModelName()}}); err != nil {
		return
	}

	out, err := h.stream.Stream(req.Request.Context(), question, func(chunk string) error {
		return send(SSEEvent{Event: "chunk", Data: StreamChunkEvent{Text: chunk}})
	})
	if err != nil {
		if writeErr == nil {
			h.logger.Error().Err(err).Msg("stream aborted")
			send(SSEEvent{Event: "error", Data: StreamErrorEvent{Error: err.Error()}})
		}
		return
	}

	send(SSEEvent{Event: "done", Data: StreamDoneEvent{StopReason: out.StopReason}})
}

// Memory handles POST /api/v1/memory
func (h *Handler) Memory(req *restful.Request, resp *restful.Response) {
	var body MemoryRequest
	if err := req.ReadEntity(&body); err != nil {
		HandleError(resp, err, http.StatusBadRequest)
		return
	}

	ctx := req.Request.Context()

	if body.ClearHistory {
		if body.SessionID != "" {
			if err := h.memory.Clear(ctx, body.SessionID); err != nil {
				h.fail(resp, "failed to clear session", err)
				return
			}
		}
		resp.WriteHeaderAndEntity(http.StatusOK, MemoryResponse{
			SessionID: body.SessionID,
			Response:  historyCleared,
		})
		return
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := h.memory.Send(ctx, sessionID, body.Message)
	if err != nil {
		h.fail(resp, "memory completion failed", err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, MemoryResponse{
		SessionID: sessionID,
		Response:  answer,
	})
}

// MemoryHistory handles GET /api/v1/memory/{session_id}
func (h *Handler) MemoryHistory(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")

	history, err := h.memory.History(req.Request.Context(), sessionID)
	if err != nil {
		h.fail(resp, "failed to load session", err)
		return
	}

	messages := make([]MessageDTO, len(history))
	for i, m := range history {
		messages[i] = MessageDTO{Role: m.Role, Content: m.Content}
	}
	resp.WriteHeaderAndEntity(http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
	})
}

// ClearMemory handles DELETE /api/v1/memory/{session_id}
func (h *Handler) ClearMemory(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")

	if err := h.memory.Clear(req.Request.Context(), sessionID); err != nil {
		h.fail(resp, "failed to clear session", err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, MemoryResponse{
		SessionID: sessionID,
		Response:  historyCleared,
	})
}

// FunctionCalling handles POST /api/v1/function-calling
func (h *Handler) FunctionCalling(req *restful.Request, resp *restful.Response) {
	body, ok := h.readMessages(req, resp)
	if !ok {
		return
	}

	result, err := h.function.Run(req.Request.Context(), body.DomainMessages())
	if err != nil {
		h.fail(resp, "function calling failed", err)
		return
	}

	calls := make([]ToolCallDTO, len(result.ToolCalls))
	for i, c := range result.ToolCalls {
		calls[i] = ToolCallDTO{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
	}

	resp.WriteHeaderAndEntity(http.StatusOK, FunctionResponse{
		Choices:   choiceFrom(result.Response.Content, result.Response.StopReason),
		Model:     result.Response.Model,
		ToolCalls: calls,
	})
}

// Vector handles POST /api/v1/vector
func (h *Handler) Vector(req *restful.Request, resp *restful.Response) {
	body, ok := h.readMessages(req, resp)
	if !ok {
		return
	}

	answer, err := h.answer.AskMessages(req.Request.Context(), body.DomainMessages())
	if err != nil {
		h.fail(resp, "retrieval answer failed", err)
		return
	}

	chunks := make([]string, len(answer.RelevantChunks))
	for i, c := range answer.RelevantChunks {
		chunks[i] = c.Chunk.Text
	}

	resp.WriteHeaderAndEntity(http.StatusOK, VectorResponse{
		Response:       answer.Response,
		RelevantChunks: chunks,
		Model:          answer.Model,
	})
}

func (h *Handler) readMessages(req *restful.Request, resp *restful.Response) (MessagesRequest, bool) {
	var body MessagesRequest
	if err := req.ReadEntity(&body); err != nil {
		h.logger.Warn().Err(err).Msg("failed to parse request body")
		HandleError(resp, err, http.StatusBadRequest)
		return body, false
	}
	if err := body.Validate(); err != nil {
		HandleError(resp, err, http.StatusBadRequest)
		return body, false
	}
	return body, true
}

func (h *Handler) fail(resp *restful.Response, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(msg)
	}
	HandleError(resp, err, status)
}
