package authors

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/filter"
	"github.com/libracat/libracat/pkg/models"
	"github.com/libracat/libracat/pkg/pagination"
	"github.com/libracat/libracat/pkg/views"
	"github.com/pkg/errors"
)

const (
	indexTemplate  = "authors/index.html"
	showTemplate   = "authors/show.html"
	formTemplate   = "authors/form.html"
	deleteTemplate = "authors/delete.html"
	gridFragment   = "authors_grid"
)

// IndexData backs the author index. Options feeds the filter select.
type IndexData struct {
	Authors  []*models.Author
	Page     pagination.Page
	Selected int
	Options  []*models.Author
	Error    string
}

// ShowData backs an author's page.
type ShowData struct {
	Author *models.Author
}

// FormData backs the create and edit forms.
type FormData struct {
	Title  string
	Action string
	Values AuthorForm
	Error  string
}

type webHandler struct {
	authorService *Service
	pageSize      int
}

func (h *webHandler) index(c echo.Context) error {
	ctx := c.Request().Context()

	data := IndexData{}
	status := http.StatusOK

	params := IndexQuery{}
	if err := c.Bind(&params); err != nil {
		e, ok := errcodes.IsUnprocessable(err)
		if !ok {
			return errors.WithStack(err)
		}
		data.Error = e.Message
		status = http.StatusUnprocessableEntity
		params = IndexQuery{Page: 1}
	}
	data.Selected = params.Author

	f, err := filter.New(0, params.Author, "", "")
	if err != nil {
		return errors.WithStack(err)
	}
	page := pagination.New(params.Page, h.pageSize, 0)
	limit, offset := page.Limit(), page.Offset()
	authors, total, err := h.authorService.FindByFilter(ctx, f, ListAuthorsOptions{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	data.Authors = authors
	data.Page = pagination.New(params.Page, h.pageSize, total)

	if views.IsPJAX(c) {
		return errors.WithStack(c.Render(status, gridFragment, data))
	}

	data.Options, err = h.authorService.ListAuthors(ctx, ListAuthorsOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Render(status, indexTemplate, data))
}

func (h *webHandler) show(c echo.Context) error {
	author, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.Render(http.StatusOK, showTemplate, ShowData{Author: author}))
}

func (h *webHandler) newForm(c echo.Context) error {
	data := FormData{Title: "New author", Action: "/authors/new"}
	return errors.WithStack(c.Render(http.StatusOK, formTemplate, data))
}

func (h *webHandler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := AuthorForm{}
	err := c.Bind(&params)
	data := FormData{Title: "New author", Action: "/authors/new", Values: params}
	if err != nil {
		return rerender(c, data, err)
	}

	author := &models.Author{}
	if err := applyFields(author, params.Name, params.BornDate, params.Gender); err != nil {
		return rerender(c, data, err)
	}
	if err := h.authorService.CreateAuthor(ctx, author); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/authors/"+strconv.Itoa(author.ID)))
}

func (h *webHandler) edit(c echo.Context) error {
	author, err := h.lookup(c)
	if err != nil {
		return err
	}
	data := FormData{
		Title:  "Edit " + author.Name,
		Action: "/authors/" + strconv.Itoa(author.ID) + "/edit",
		Values: formFromAuthor(author),
	}
	return errors.WithStack(c.Render(http.StatusOK, formTemplate, data))
}

func (h *webHandler) update(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := AuthorForm{}
	err = c.Bind(&params)
	data := FormData{
		Title:  "Edit " + author.Name,
		Action: "/authors/" + strconv.Itoa(author.ID) + "/edit",
		Values: params,
	}
	if err != nil {
		return rerender(c, data, err)
	}

	if err := applyFields(author, params.Name, params.BornDate, params.Gender); err != nil {
		return rerender(c, data, err)
	}
	if err := h.authorService.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: editableColumns}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/authors/"+strconv.Itoa(author.ID)))
}

func (h *webHandler) confirmDelete(c echo.Context) error {
	author, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.Render(http.StatusOK, deleteTemplate, author))
}

func (h *webHandler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.lookup(c)
	if err != nil {
		return err
	}
	if err := h.authorService.DeleteAuthor(ctx, author.ID); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/authors"))
}

func (h *webHandler) lookup(c echo.Context) (*models.Author, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Author")
	}
	author, err := h.authorService.RetrieveAuthor(c.Request().Context(), RetrieveAuthorOptions{
		ID: &id,
	})
	return author, errors.WithStack(err)
}

func rerender(c echo.Context, data FormData, err error) error {
	e, ok := errcodes.IsUnprocessable(err)
	if !ok {
		return errors.WithStack(err)
	}
	data.Error = e.Message
	return errors.WithStack(c.Render(http.StatusUnprocessableEntity, formTemplate, data))
}
