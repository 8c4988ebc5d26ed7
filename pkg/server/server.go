package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/authors"
	"github.com/libracat/libracat/pkg/avatars"
	"github.com/libracat/libracat/pkg/binder"
	"github.com/libracat/libracat/pkg/books"
	"github.com/libracat/libracat/pkg/config"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/genres"
	"github.com/libracat/libracat/pkg/metrics"
	"github.com/libracat/libracat/pkg/testutils"
	"github.com/libracat/libracat/pkg/users"
	"github.com/libracat/libracat/pkg/views"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// New builds the HTTP server with every route of the catalog registered.
func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(cfg, db)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB) (*echo.Echo, error) {
	e := echo.New()
	// Groups with middleware capture the handler when they are created.
	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b
	e.JSONSerializer = &jsonSerializer{}

	renderer, err := views.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Renderer = renderer

	store, err := avatars.NewStore(cfg.UploadDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(metrics.Middleware())

	health.RegisterRoutes(e)
	metrics.RegisterRoutes(e)
	views.RegisterRoutes(e, store.Dir())

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	users.RegisterRoutes(e, db, authService, authMiddleware)
	books.RegisterRoutes(e, db, cfg, store, authMiddleware)
	genres.RegisterRoutes(e, db, cfg, authMiddleware)
	authors.RegisterRoutes(e, db, cfg, authMiddleware)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db, authService)
	}

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
