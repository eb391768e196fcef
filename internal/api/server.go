package api

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"ragchat/config"
)

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "ragchat API",
			Description: "Chat completion with retrieval-augmented prompts",
			Version:     Version,
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "chat", Description: "Plain, guided and streaming completion"}},
		{TagProps: spec.TagProps{Name: "memory", Description: "Session conversations"}},
		{TagProps: spec.TagProps{Name: "tools", Description: "Function calling"}},
		{TagProps: spec.TagProps{Name: "retrieval", Description: "Answers grounded in documents"}},
	}
}

// NewContainer wires filters, routes and the OpenAPI document.
func NewContainer(handler *Handler, logger *zerolog.Logger) *restful.Container {
	container := restful.NewContainer()

	container.Filter(Logger(logger))
	container.Filter(RecoverPanic(logger))

	RegisterRoutes(container, handler)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/api/v1/openapi.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))

	return container
}

// NewServer wraps the container with CORS and the configured timeouts.
func NewServer(cfg config.ServerConfig, container *restful.Container) *http.Server {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      corsHandler.Handler(container),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
