package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.Route(ws.GET("/health").
		To(handler.Health).
		Doc("Health check").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Writes(HealthResponse{}).
		Returns(200, "OK", HealthResponse{}))

	ws.Route(ws.POST("/chat").
		To(handler.Chat).
		Doc("Chat completion with history trimmed to the token budget").
		Metadata(restfulspec.KeyOpenAPITags, []string{"chat"}).
		Reads(MessagesRequest{}).
		Writes(ChatResponse{}).
		Returns(200, "OK", ChatResponse{}).
		Returns(400, "Bad Request", ErrorResponse{}).
		Returns(500, "Internal Server Error", ErrorResponse{}))

	ws.Route(ws.POST("/assistant").
		To(handler.Assistant).
		Doc("Chat completion under the assistant guidelines").
		Metadata(restfulspec.KeyOpenAPITags, []string{"chat"}).
		Reads(MessagesRequest{}).
		Writes(ChatResponse{}).
		Returns(200, "OK", ChatResponse{}).
		Returns(400, "Bad Request", ErrorResponse{}).
		Returns(500, "Internal Server Error", ErrorResponse{}))

	ws.Route(ws.POST("/stream").
		To(handler.Stream).
		Doc("Stream an answer as plain text, or as server-sent events").
		Metadata(restfulspec.KeyOpenAPITags, []string{"chat"}).
		Produces("text/plain", "text/event-stream", restful.MIME_JSON).
		Reads(StreamRequest{}).
		Returns(200, "OK", nil).
		Returns(400, "Bad Request", ErrorResponse{}))

	ws.Route(ws.POST("/memory").
		To(handler.Memory).
		Doc("Converse within a session").
		Metadata(restfulspec.KeyOpenAPITags, []string{"memory"}).
		Reads(MemoryRequest{}).
		Writes(MemoryResponse{}).
		Returns(200, "OK", MemoryResponse{}).
		Returns(400, "Bad Request", ErrorResponse{}).
		Returns(500, "Internal Server Error", ErrorResponse{}))

	ws.Route(ws.GET("/memory/{session_id}").
		To(handler.MemoryHistory).
		Doc("Session history").
		Metadata(restfulspec.KeyOpenAPITags, []string{"memory"}).
		Param(ws.PathParameter("session_id", "session identifier").DataType("string")).
		Writes(HistoryResponse{}).
		Returns(200, "OK", HistoryResponse{}))

	ws.Route(ws.DELETE("/memory/{session_id}").
		To(handler.ClearMemory).
		Doc("Clear a session").
		Metadata(restfulspec.KeyOpenAPITags, []string{"memory"}).
		Param(ws.PathParameter("session_id", "session identifier").DataType("string")).
		Writes(MemoryResponse{}).
		Returns(200, "OK", MemoryResponse{}))

	ws.Route(ws.POST("/function-calling").
		To(handler.FunctionCalling).
		Doc("Completion with tools").
		Metadata(restfulspec.KeyOpenAPITags, []string{"tools"}).
		Reads(MessagesRequest{}).
		Writes(FunctionResponse{}).
		Returns(200, "OK", FunctionResponse{}).
		Returns(400, "Bad Request", ErrorResponse{}).
		Returns(500, "Internal Server Error", ErrorResponse{}))

	ws.Route(ws.POST("/vector").
		To(handler.Vector).
		Doc("Answer the last message from retrieved document chunks").
		Metadata(restfulspec.KeyOpenAPITags, []string{"retrieval"}).
		Reads(MessagesRequest{}).
		Writes(VectorResponse{}).
		Returns(200, "OK", VectorResponse{}).
		Returns(400, "Bad Request", ErrorResponse{}).
		Returns(500, "Internal Server Error", ErrorResponse{}))

	container.Add(ws)
}
