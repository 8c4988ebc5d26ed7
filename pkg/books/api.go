package books

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

// editableColumns are the columns a create or update payload writes. Votes
// and the avatar are never touched by the API.
var editableColumns = []string{"name", "release_date", "catalog_entry_date", "rating"}

type apiHandler struct {
	bookService *Service
}

func (h *apiHandler) list(c echo.Context) error {
	ctx := c.Request().Context()

	books, err := h.bookService.ListBooks(ctx, ListBooksOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := lo.Map(books, func(b *models.Book, _ int) *models.BookProjection { return b.Project() })
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *apiHandler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.MissingMandatory() {
		return errcodes.MissingParameters()
	}

	book := &models.Book{}
	if err := applyFields(book, params.Name, params.ReleaseDate, params.CatalogEntryDate, *params.Rating); err != nil {
		return err
	}

	if err := h.bookService.CreateBook(ctx, book, params.Genre, params.Author); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, map[string]string{"status": "Book created!"}))
}

func (h *apiHandler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book.Project()))
}

func (h *apiHandler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// Fetch the book first so an unknown id is a 404 whatever the payload.
	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.MissingMandatory() {
		return errcodes.MissingParameters()
	}

	if err := applyFields(book, params.Name, params.ReleaseDate, params.CatalogEntryDate, *params.Rating); err != nil {
		return err
	}

	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{
		Columns:     editableColumns,
		UpdateLinks: true,
		GenreIDs:    params.Genre,
		AuthorIDs:   params.Author,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book updated", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.JSON(http.StatusOK, book.Project()))
}

func (h *apiHandler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": id})

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"status": "Book deleted"}))
}

// applyFields copies validated form values onto book. Dates were already
// checked by the binder, so a parse failure here is a validation error too.
func applyFields(book *models.Book, name, releaseDate, catalogEntryDate string, rating float64) error {
	release, err := models.ParseDate(releaseDate)
	if err != nil {
		return errcodes.ValidationError(`"releaseDate" should be in the format of YYYY-MM-DD or YYYY-MM-DD HH:MM:SS`)
	}
	catalogEntry, err := models.ParseDate(catalogEntryDate)
	if err != nil {
		return errcodes.ValidationError(`"catalogEntryDate" should be in the format of YYYY-MM-DD or YYYY-MM-DD HH:MM:SS`)
	}
	book.Name = name
	book.ReleaseDate = release
	book.CatalogEntryDate = catalogEntry
	book.Rating = rating
	return nil
}
