package genres

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
	indexTemplate  = "genres/index.html"
	showTemplate   = "genres/show.html"
	formTemplate   = "genres/form.html"
	deleteTemplate = "genres/delete.html"
	gridFragment   = "genres_grid"
)

// IndexData backs the genre index. Options feeds the filter select.
type IndexData struct {
	Genres   []*models.Genre
	Page     pagination.Page
	Selected int
	Options  []*models.Genre
	Error    string
}

// ShowData backs a genre's page.
type ShowData struct {
	Genre *models.Genre
}

// FormData backs the create and edit forms.
type FormData struct {
	Title  string
	Action string
	Values GenreForm
	Error  string
}

type webHandler struct {
	genreService *Service
	pageSize     int
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
	data.Selected = params.Genre

	f, err := filter.New(params.Genre, 0, "", "")
	if err != nil {
		return errors.WithStack(err)
	}
	page := pagination.New(params.Page, h.pageSize, 0)
	limit, offset := page.Limit(), page.Offset()
	genres, total, err := h.genreService.FindByFilter(ctx, f, ListGenresOptions{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	data.Genres = genres
	data.Page = pagination.New(params.Page, h.pageSize, total)

	if views.IsPJAX(c) {
		return errors.WithStack(c.Render(status, gridFragment, data))
	}

	data.Options, err = h.genreService.ListGenres(ctx, ListGenresOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Render(status, indexTemplate, data))
}

func (h *webHandler) show(c echo.Context) error {
	genre, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.Render(http.StatusOK, showTemplate, ShowData{Genre: genre}))
}

func (h *webHandler) newForm(c echo.Context) error {
	data := FormData{Title: "New genre", Action: "/genres/new"}
	return errors.WithStack(c.Render(http.StatusOK, formTemplate, data))
}

func (h *webHandler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := GenreForm{}
	err := c.Bind(&params)
	data := FormData{Title: "New genre", Action: "/genres/new", Values: params}
	if err != nil {
		return rerender(c, data, err)
	}

	genre := &models.Genre{Name: params.Name}
	if err := h.genreService.CreateGenre(ctx, genre); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/genres/"+strconv.Itoa(genre.ID)))
}

func (h *webHandler) edit(c echo.Context) error {
	genre, err := h.lookup(c)
	if err != nil {
		return err
	}
	data := FormData{
		Title:  "Edit " + genre.Name,
		Action: "/genres/" + strconv.Itoa(genre.ID) + "/edit",
		Values: GenreForm{Name: genre.Name},
	}
	return errors.WithStack(c.Render(http.StatusOK, formTemplate, data))
}

func (h *webHandler) update(c echo.Context) error {
	ctx := c.Request().Context()

	genre, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := GenreForm{}
	err = c.Bind(&params)
	data := FormData{
		Title:  "Edit " + genre.Name,
		Action: "/genres/" + strconv.Itoa(genre.ID) + "/edit",
		Values: params,
	}
	if err != nil {
		return rerender(c, data, err)
	}

	genre.Name = params.Name
	if err := h.genreService.UpdateGenre(ctx, genre, UpdateGenreOptions{Columns: []string{"name"}}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/genres/"+strconv.Itoa(genre.ID)))
}

func (h *webHandler) confirmDelete(c echo.Context) error {
	genre, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.Render(http.StatusOK, deleteTemplate, genre))
}

func (h *webHandler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	genre, err := h.lookup(c)
	if err != nil {
		return err
	}
	if err := h.genreService.DeleteGenre(ctx, genre.ID); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/genres"))
}

func (h *webHandler) lookup(c echo.Context) (*models.Genre, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Genre")
	}
	genre, err := h.genreService.RetrieveGenre(c.Request().Context(), RetrieveGenreOptions{
		ID: &id,
	})
	return genre, errors.WithStack(err)
}

func rerender(c echo.Context, data FormData, err error) error {
	e, ok := errcodes.IsUnprocessable(err)
	if !ok {
		return errors.WithStack(err)
	}
	data.Error = e.Message
	return errors.WithStack(c.Render(http.StatusUnprocessableEntity, formTemplate, data))
}
