package books

import (
	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/authors"
	"github.com/libracat/libracat/pkg/avatars"
	"github.com/libracat/libracat/pkg/config"
	"github.com/libracat/libracat/pkg/genres"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the REST API under /api/v1/books and the web pages,
// the book index being the site root.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, store *avatars.Store, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	api := &apiHandler{
		bookService: bookService,
	}

	g := e.Group("/api/v1/books")
	g.GET("", api.list)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.delete)

	web := &webHandler{
		bookService:   bookService,
		genreService:  genres.NewService(db),
		authorService: authors.NewService(db),
		avatars:       store,
		pageSize:      cfg.PageSize,
	}

	e.GET("/", web.index, authMiddleware.AuthenticateOptional)

	w := e.Group("/books", authMiddleware.AuthenticateOptional)
	w.GET("/new", web.newForm)
	w.POST("/new", web.create)
	w.GET("/:id", web.show)
	w.GET("/:id/edit", web.edit)
	w.POST("/:id/edit", web.update)
	w.GET("/:id/delete", web.confirmDelete)
	w.POST("/:id/delete", web.delete)
	w.POST("/:id/favorite", web.favorite, authMiddleware.RequireLogin)
	w.POST("/:id/unfavorite", web.unfavorite, authMiddleware.RequireLogin)

	return bookService
}
