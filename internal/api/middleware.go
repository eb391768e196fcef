package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"ragchat/internal/domain"
)

// HandleError writes err as a JSON ErrorResponse regardless of the Accept
// header, so streaming routes report failures the same way.
func HandleError(resp *restful.Response, err error, status int) {
	resp.WriteHeaderAndJson(status, ErrorResponse{
		Error:   err.Error(),
		Code:    status,
		Details: http.StatusText(status),
	}, restful.MIME_JSON)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Logger logs one line per request.
func Logger(logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)

		status := resp.StatusCode()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", req.Request.Method).
			Str("path", req.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// RecoverPanic turns a handler panic into a 500.
func RecoverPanic(logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", req.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				HandleError(resp, fmt.Errorf("internal server error"), http.StatusInternalServerError)
			}
		}()
		chain.ProcessFilter(req, resp)
	}
}
