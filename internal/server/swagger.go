package server

//go:generate swag init -g internal/server/swagger.go -o docs/swagger

// @title SNOOP API
// @version 0.1
// @description Web front end for running network scans and fetching their reports.
// @contact.name SNOOP Maintainers
// @contact.url https://github.com/natadecua/SNOOP
// @BasePath /

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/natadecua/SNOOP/docs/swagger" // registers the generated spec
)

func (s *Server) mountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
