package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the REST API under /api/v1/authors and the web pages
// under /authors.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	authorService := NewService(db)

	api := &apiHandler{
		authorService: authorService,
	}

	g := e.Group("/api/v1/authors")
	g.GET("", api.list)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.delete)

	web := &webHandler{
		authorService: authorService,
		pageSize:      cfg.PageSize,
	}

	w := e.Group("/authors", authMiddleware.AuthenticateOptional)
	w.GET("", web.index)
	w.GET("/new", web.newForm)
	w.POST("/new", web.create)
	w.GET("/:id", web.show)
	w.GET("/:id/edit", web.edit)
	w.POST("/:id/edit", web.update)
	w.GET("/:id/delete", web.confirmDelete)
	w.POST("/:id/delete", web.delete)

	return authorService
}
