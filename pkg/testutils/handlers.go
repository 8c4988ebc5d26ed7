package testutils

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/models"
	"github.com/libracat/libracat/pkg/seed"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}

// createUser creates a test user without the usual length rules.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	hashedPassword, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Login:        req.Login,
		PasswordHash: hashedPassword,
	}
	_, err = h.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:    user.ID,
		Login: user.Login,
	})
}

// deletedResponse reports how many rows a reset removed.
type deletedResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAllUsers deletes all users and their favorites.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	var deleted int64
	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.BookFavorite)(nil)).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete favorites")
		}

		result, err := tx.NewDelete().
			Model((*models.User)(nil)).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete users")
		}
		deleted, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deletedResponse{Deleted: int(deleted)})
}

// seedCatalog inserts the demonstration catalog.
// POST /test/catalog.
func (h *handler) seedCatalog(c echo.Context) error {
	res, err := seed.Catalog(c.Request().Context(), h.db, uint64(time.Now().UnixNano()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// deleteCatalog removes every book, genre and author along with their links.
// DELETE /test/catalog.
func (h *handler) deleteCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	var deleted int64
	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*models.BookFavorite)(nil),
			(*models.BookGenre)(nil),
			(*models.BookAuthor)(nil),
			(*models.Book)(nil),
			(*models.Genre)(nil),
			(*models.Author)(nil),
		} {
			result, err := tx.NewDelete().Model(model).Where("1=1").Exec(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to reset catalog")
			}
			n, _ := result.RowsAffected()
			deleted += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deletedResponse{Deleted: int(deleted)})
}
