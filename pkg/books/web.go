package books

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/authors"
	"github.com/libracat/libracat/pkg/avatars"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/filter"
	"github.com/libracat/libracat/pkg/genres"
	"github.com/libracat/libracat/pkg/models"
	"github.com/libracat/libracat/pkg/pagination"
	"github.com/libracat/libracat/pkg/views"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	indexTemplate  = "books/index.html"
	showTemplate   = "books/show.html"
	formTemplate   = "books/form.html"
	deleteTemplate = "books/delete.html"
	gridFragment   = "books_grid"
)

// IndexData backs the book index and its grid fragment.
type IndexData struct {
	Books     []*models.Book
	Page      pagination.Page
	Query     IndexQuery
	Genres    []*models.Genre
	Authors   []*models.Author
	Latest    []*models.Book
	Favorites []*models.Book
	Error     string
}

// ShowData backs a book's page.
type ShowData struct {
	Book            *models.Book
	Recommendations []*models.Book
	IsFavorite      bool
}

// FormData backs the create and edit forms. Book is nil when creating.
type FormData struct {
	Title   string
	Action  string
	Book    *models.Book
	Values  BookForm
	Genres  []*models.Genre
	Authors []*models.Author
	Error   string
}

type webHandler struct {
	bookService   *Service
	genreService  *genres.Service
	authorService *authors.Service
	avatars       *avatars.Store
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
		// Show the whole catalog along with what was wrong with the query.
		data.Error = e.Message
		status = http.StatusUnprocessableEntity
		params = IndexQuery{Page: 1}
	}
	data.Query = params

	opts := ListBooksOptions{}
	page := pagination.New(params.Page, h.pageSize, 0)
	limit, offset := page.Limit(), page.Offset()
	opts.Limit = &limit
	opts.Offset = &offset

	var (
		books []*models.Book
		total int
		err   error
	)
	if params.Search != "" {
		books, total, err = h.bookService.Search(ctx, params.Search, opts)
	} else {
		var f filter.Filter
		f, err = filter.New(params.Genre, params.Author, params.DateStart, params.DateEnd)
		if err != nil {
			return errors.WithStack(err)
		}
		books, total, err = h.bookService.FindByFilter(ctx, f, opts)
	}
	if err != nil {
		return errors.WithStack(err)
	}
	data.Books = books
	data.Page = pagination.New(params.Page, h.pageSize, total)

	if views.IsPJAX(c) {
		return errors.WithStack(c.Render(status, gridFragment, data))
	}

	if err := h.loadChoices(ctx, &data.Genres, &data.Authors); err != nil {
		return err
	}

	data.Latest, err = h.bookService.LatestBooks(ctx, LatestLimit)
	if err != nil {
		return errors.WithStack(err)
	}

	if user := auth.UserFromContext(c); user != nil {
		data.Favorites, err = h.bookService.FavoritesForUser(ctx, user.ID)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(c.Render(status, indexTemplate, data))
}

func (h *webHandler) show(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.lookup(c)
	if err != nil {
		return err
	}

	recommendations, err := h.bookService.RecommendedBooks(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	data := ShowData{
		Book:            book,
		Recommendations: recommendations,
	}
	if user := auth.UserFromContext(c); user != nil {
		data.IsFavorite = book.IsFavoriteOf(user.ID)
	}

	return errors.WithStack(c.Render(http.StatusOK, showTemplate, data))
}

func (h *webHandler) newForm(c echo.Context) error {
	data := FormData{Title: "New book", Action: "/books/new"}
	return h.renderForm(c, http.StatusOK, data)
}

func (h *webHandler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookForm{}
	data := FormData{Title: "New book", Action: "/books/new"}
	if err := c.Bind(&params); err != nil {
		data.Values = params
		return h.rerender(c, data, err)
	}
	data.Values = params

	book := &models.Book{}
	if err := applyFields(book, params.Name, params.ReleaseDate, params.CatalogEntryDate, *params.Rating); err != nil {
		return h.rerender(c, data, err)
	}

	saved, err := h.saveAvatar(params)
	if err != nil {
		return h.rerender(c, data, err)
	}
	book.Avatar = saved

	if err := h.bookService.CreateBook(ctx, book, params.Genre, params.Author); err != nil {
		h.removeAvatar(ctx, saved)
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/books/"+strconv.Itoa(book.ID)))
}

func (h *webHandler) edit(c echo.Context) error {
	book, err := h.lookup(c)
	if err != nil {
		return err
	}

	data := FormData{
		Title:  "Edit " + book.Name,
		Action: "/books/" + strconv.Itoa(book.ID) + "/edit",
		Book:   book,
		Values: formFromBook(book),
	}
	return h.renderForm(c, http.StatusOK, data)
}

func (h *webHandler) update(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := BookForm{}
	data := FormData{
		Title:  "Edit " + book.Name,
		Action: "/books/" + strconv.Itoa(book.ID) + "/edit",
		Book:   book,
	}
	if err := c.Bind(&params); err != nil {
		data.Values = params
		return h.rerender(c, data, err)
	}
	data.Values = params

	if err := applyFields(book, params.Name, params.ReleaseDate, params.CatalogEntryDate, *params.Rating); err != nil {
		return h.rerender(c, data, err)
	}

	saved, err := h.saveAvatar(params)
	if err != nil {
		return h.rerender(c, data, err)
	}

	columns := append([]string{}, editableColumns...)
	previous := book.Avatar
	switch {
	case saved != nil:
		book.Avatar = saved
		columns = append(columns, "avatar")
	case params.RemoveAvatar && previous != nil:
		book.Avatar = nil
		columns = append(columns, "avatar")
	default:
		previous = nil
	}

	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{
		Columns:     columns,
		UpdateLinks: true,
		GenreIDs:    params.Genre,
		AuthorIDs:   params.Author,
	})
	if err != nil {
		h.removeAvatar(ctx, saved)
		return errors.WithStack(err)
	}
	// The old file is only dropped once the row no longer points at it.
	h.removeAvatar(ctx, previous)

	logger.FromContext(ctx).Info("book updated", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/books/"+strconv.Itoa(book.ID)))
}

func (h *webHandler) confirmDelete(c echo.Context) error {
	book, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.Render(http.StatusOK, deleteTemplate, book))
}

func (h *webHandler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.lookup(c)
	if err != nil {
		return err
	}

	if err := h.bookService.DeleteBook(ctx, book.ID); err != nil {
		return errors.WithStack(err)
	}
	h.removeAvatar(ctx, book.Avatar)

	logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.Redirect(http.StatusSeeOther, "/"))
}

func (h *webHandler) favorite(c echo.Context) error {
	return h.toggleFavorite(c, h.bookService.Favorite)
}

func (h *webHandler) unfavorite(c echo.Context) error {
	return h.toggleFavorite(c, h.bookService.Unfavorite)
}

func (h *webHandler) toggleFavorite(c echo.Context, fn func(ctx context.Context, bookID, userID int) error) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	user := auth.UserFromContext(c)
	if err := fn(ctx, id, user.ID); err != nil {
		return errors.WithStack(err)
	}

	target := auth.SafeRedirect(c.Request().Referer())
	if target == "/" {
		target = "/books/" + strconv.Itoa(id)
	}
	return errors.WithStack(c.Redirect(http.StatusSeeOther, target))
}

func (h *webHandler) lookup(c echo.Context) (*models.Book, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Book")
	}
	book, err := h.bookService.RetrieveBook(c.Request().Context(), RetrieveBookOptions{
		ID: &id,
	})
	return book, errors.WithStack(err)
}

// saveAvatar stores the uploaded cover, if any, and returns its file name.
func (h *webHandler) saveAvatar(params BookForm) (*string, error) {
	fh, ok := params.FormFiles["avatar"]
	if !ok {
		return nil, nil
	}
	name, err := h.avatars.Save(fh)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

// removeAvatar deletes a cover file, logging instead of failing.
func (h *webHandler) removeAvatar(ctx context.Context, name *string) {
	if name == nil {
		return
	}
	if err := h.avatars.Remove(*name); err != nil {
		logger.FromContext(ctx).Warn("failed to remove avatar", logger.Data{"avatar": *name, "error": err.Error()})
	}
}

func (h *webHandler) rerender(c echo.Context, data FormData, err error) error {
	e, ok := errcodes.IsUnprocessable(err)
	if !ok {
		return errors.WithStack(err)
	}
	data.Error = e.Message
	return h.renderForm(c, http.StatusUnprocessableEntity, data)
}

func (h *webHandler) renderForm(c echo.Context, status int, data FormData) error {
	if err := h.loadChoices(c.Request().Context(), &data.Genres, &data.Authors); err != nil {
		return err
	}
	return errors.WithStack(c.Render(status, formTemplate, data))
}

func (h *webHandler) loadChoices(ctx context.Context, g *[]*models.Genre, a *[]*models.Author) error {
	var err error
	*g, err = h.genreService.ListGenres(ctx, genres.ListGenresOptions{})
	if err != nil {
		return errors.WithStack(err)
	}
	*a, err = h.authorService.ListAuthors(ctx, authors.ListAuthorsOptions{})
	return errors.WithStack(err)
}
