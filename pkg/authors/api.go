package authors

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/samber/lo"
)

var editableColumns = []string{"name", "born_date", "gender"}

type apiHandler struct {
	authorService *Service
}

func (h *apiHandler) list(c echo.Context) error {
	ctx := c.Request().Context()

	authors, err := h.authorService.ListAuthors(ctx, ListAuthorsOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := lo.Map(authors, func(a *models.Author, _ int) *models.AuthorProjection { return a.Project() })
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *apiHandler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := AuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.MissingMandatory() {
		return errcodes.MissingParameters()
	}

	author := &models.Author{}
	if err := applyFields(author, params.Name, params.BornDate, params.Gender); err != nil {
		return err
	}
	if err := h.authorService.CreateAuthor(ctx, author); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("author created", logger.Data{"author_id": author.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, map[string]string{"status": "Author created!"}))
}

func (h *apiHandler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author.Project()))
}

func (h *apiHandler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	params := AuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.MissingMandatory() {
		return errcodes.MissingParameters()
	}

	if err := applyFields(author, params.Name, params.BornDate, params.Gender); err != nil {
		return err
	}
	err = h.authorService.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: editableColumns})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author.Project()))
}

func (h *apiHandler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	if err := h.authorService.DeleteAuthor(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("author deleted", logger.Data{"author_id": id})

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"status": "Author deleted"}))
}
