package views

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/models"
	"github.com/libracat/libracat/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string, user *models.User) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if user != nil {
		c.Set("user", user)
	}
	return c
}

func sampleBook() *models.Book {
	avatar := "cover.png"
	return &models.Book{
		ID:               3,
		Name:             "The Left Hand of Darkness",
		ReleaseDate:      time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC),
		CatalogEntryDate: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Rating:           9.5,
		Likes:            7,
		Dislikes:         3,
		Avatar:           &avatar,
		Genres:           []*models.Genre{{ID: 1, Name: "Science fiction"}},
		Authors:          []*models.Author{{ID: 2, Name: "Ursula K. Le Guin"}},
	}
}

func indexData() map[string]interface{} {
	return map[string]interface{}{
		"Books": []*models.Book{sampleBook()},
		"Page":  pagination.New(2, 1, 3),
		"Query": map[string]interface{}{
			"Search": "", "Genre": 1, "Author": 0, "DateStart": "", "DateEnd": "",
		},
		"Genres":    []*models.Genre{{ID: 1, Name: "Science fiction"}},
		"Authors":   []*models.Author{{ID: 2, Name: "Ursula K. Le Guin"}},
		"Latest":    []*models.Book{sampleBook()},
		"Favorites": []*models.Book{},
		"Error":     "",
	}
}

func TestRenderer_Pages(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	t.Run("book index wraps the layout", func(tt *testing.T) {
		var buf bytes.Buffer
		c := newContext("/?genre=1&page=2", &models.User{ID: 1, Login: "reader"})
		require.NoError(tt, r.Render(&buf, "books/index.html", indexData(), c))

		html := buf.String()
		assert.Contains(tt, html, "<title>Books | libracat</title>")
		assert.Contains(tt, html, "The Left Hand of Darkness")
		assert.Contains(tt, html, "Ursula K. Le Guin")
		assert.Contains(tt, html, "/uploads/cover.png")
		assert.Contains(tt, html, `<option value="1" selected>Science fiction</option>`)
		assert.Contains(tt, html, "Your favorites")
		assert.Contains(tt, html, `href="?genre=1&amp;page=3"`)
		assert.Contains(tt, html, "reader")
		assert.Contains(tt, html, "<footer>libracat dev</footer>")
	})

	t.Run("anonymous visitors get sign in links", func(tt *testing.T) {
		var buf bytes.Buffer
		require.NoError(tt, r.Render(&buf, "books/index.html", indexData(), newContext("/", nil)))
		assert.Contains(tt, buf.String(), "Sign in")
		assert.NotContains(tt, buf.String(), "Your favorites")
	})

	t.Run("book page renders the rating widget", func(tt *testing.T) {
		var buf bytes.Buffer
		data := map[string]interface{}{
			"Book":            sampleBook(),
			"Recommendations": []*models.Book{},
			"IsFavorite":      false,
		}
		require.NoError(tt, r.Render(&buf, "books/show.html", data, newContext("/books/3", nil)))
		html := buf.String()
		assert.Contains(tt, html, `<strong class="score">4</strong>`)
		assert.Contains(tt, html, "1969-03-01")
		assert.Contains(tt, html, "2024-05-06 07:08:09")
		assert.Contains(tt, html, "/books/3/favorite")
		assert.Contains(tt, html, "No other books yet.")
	})

	t.Run("missing avatars use the placeholder", func(tt *testing.T) {
		var buf bytes.Buffer
		book := sampleBook()
		book.Avatar = nil
		data := map[string]interface{}{"Book": book, "Recommendations": []*models.Book{}, "IsFavorite": true}
		require.NoError(tt, r.Render(&buf, "books/show.html", data, newContext("/books/3", nil)))
		assert.Contains(tt, buf.String(), "/static/null-image.svg")
		assert.Contains(tt, buf.String(), "/books/3/unfavorite")
	})

	t.Run("error page", func(tt *testing.T) {
		var buf bytes.Buffer
		data := map[string]interface{}{"code": "not_found", "message": "Book not found.", "status_code": 404}
		require.NoError(tt, r.Render(&buf, "error.html", data, newContext("/books/9", nil)))
		assert.Contains(tt, buf.String(), "Book not found.")
		assert.Contains(tt, buf.String(), "<h1>404</h1>")
	})

	t.Run("form errors are shown", func(tt *testing.T) {
		var buf bytes.Buffer
		data := map[string]interface{}{"Login": "reader", "Next": "/", "Error": "Invalid login or password"}
		require.NoError(tt, r.Render(&buf, "auth/login.html", data, newContext("/login", nil)))
		assert.Contains(tt, buf.String(), `role="alert">Invalid login or password</p>`)
	})
}

func TestRenderer_Fragment(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "books_grid", indexData(), newContext("/?page=2", nil)))
	html := buf.String()
	assert.Contains(t, html, `<div id="grid">`)
	assert.Contains(t, html, "The Left Hand of Darkness")
	assert.NotContains(t, html, "<html")
}

func TestRenderer_Unknown(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	err = r.Render(&bytes.Buffer{}, "nope.html", nil, nil)
	assert.EqualError(t, err, `template "nope.html" not found`)
}

func TestWithPage(t *testing.T) {
	t.Parallel()
	q := url.Values{"search": {"dune"}, "page": {"1"}, "_pjax": {"#grid"}}
	assert.Equal(t, "?page=4&search=dune", withPage(q, 4))
}

func TestIsPJAX(t *testing.T) {
	t.Parallel()
	c := newContext("/", nil)
	assert.False(t, IsPJAX(c))
	c.Request().Header.Set("X-PJAX", "true")
	assert.True(t, IsPJAX(c))
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()
	e := echo.New()
	RegisterRoutes(e, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/static/null-image.svg", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<svg")
}
