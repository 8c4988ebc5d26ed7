package genres

import (
	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the REST API under /api/v1/genres and the web pages
// under /genres.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	genreService := NewService(db)

	api := &apiHandler{
		genreService: genreService,
	}

	g := e.Group("/api/v1/genres")
	g.GET("", api.list)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.delete)

	web := &webHandler{
		genreService: genreService,
		pageSize:     cfg.PageSize,
	}

	w := e.Group("/genres", authMiddleware.AuthenticateOptional)
	w.GET("", web.index)
	w.GET("/new", web.newForm)
	w.POST("/new", web.create)
	w.GET("/:id", web.show)
	w.GET("/:id/edit", web.edit)
	w.POST("/:id/edit", web.update)
	w.GET("/:id/delete", web.confirmDelete)
	w.POST("/:id/delete", web.delete)

	return genreService
}
