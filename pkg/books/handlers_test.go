package books

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/avatars"
	"github.com/libracat/libracat/pkg/binder"
	"github.com/libracat/libracat/pkg/config"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/models"
	"github.com/libracat/libracat/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testServer struct {
	e           *echo.Echo
	db          *bun.DB
	svc         *Service
	authService *auth.Service
	store       *avatars.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := setupTestDB(t)
	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	r, err := views.New()
	require.NoError(t, err)
	e.Renderer = r
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	store, err := avatars.NewStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	authService := auth.NewService(db, "test-secret")
	svc := RegisterRoutes(e, db, config.NewForTest(), store, auth.NewMiddleware(authService))

	return &testServer{e: e, db: db, svc: svc, authService: authService, store: store}
}

func (ts *testServer) do(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, err := ts.authService.GenerateToken(user)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func multipartRequest(t *testing.T, target string, form url.Values, avatar []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if avatar != nil {
		fw, err := w.CreateFormFile("avatar", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(avatar)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAPI_List(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	g := createGenre(t, ts.db, "Fantasy")
	a := createAuthor(t, ts.db, "Tolkien")
	createBook(t, ts.svc, "The Hobbit", bookOpts{release: "1937-09-21", genres: []int{g.ID}, authors: []int{a.ID}})
	createBook(t, ts.svc, "Silmarillion", bookOpts{})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := []models.BookProjection{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, models.BookProjection{
		ID:               got[0].ID,
		Name:             "The Hobbit",
		ReleaseDate:      "1937-09-21 00:00:00",
		CatalogEntryDate: "2024-01-01 12:00:00",
		Rating:           5,
		Genre:            "Fantasy",
		Author:           "Tolkien",
	}, got[0])
	assert.Equal(t, "Silmarillion", got[1].Name)
	assert.Less(t, got[0].ID, got[1].ID)
}

func TestAPI_Create(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	g := createGenre(t, ts.db, "Fantasy")

	t.Run("creates the book", func(tt *testing.T) {
		body := `{"name":"Dune","releaseDate":"1965-08-01","catalogEntryDate":"2024-02-03 04:05:06","rating":0,"genre":[` + strconv.Itoa(g.ID) + `,999],"author":[]}`
		rec := ts.do(tt, jsonRequest(http.MethodPost, "/api/v1/books", body), nil)
		assert.Equal(tt, http.StatusCreated, rec.Code)
		assert.JSONEq(tt, `{"status":"Book created!"}`, rec.Body.String())

		books, err := ts.svc.ListBooks(context.Background(), ListBooksOptions{})
		require.NoError(tt, err)
		require.Len(tt, books, 1)
		assert.Equal(tt, "Dune", books[0].Name)
		assert.Equal(tt, []int{g.ID}, books[0].GenreIDs())
	})

	t.Run("missing mandatory fields", func(tt *testing.T) {
		for _, body := range []string{
			`{"releaseDate":"1965-08-01","catalogEntryDate":"2024-02-03","rating":5}`,
			`{"name":"Dune","catalogEntryDate":"2024-02-03","rating":5}`,
			`{"name":"Dune","releaseDate":"1965-08-01","rating":5}`,
			`{"name":"Dune","releaseDate":"1965-08-01","catalogEntryDate":"2024-02-03"}`,
			`{"name":"   ","releaseDate":"1965-08-01","catalogEntryDate":"2024-02-03","rating":5}`,
		} {
			rec := ts.do(tt, jsonRequest(http.MethodPost, "/api/v1/books", body), nil)
			assert.Equal(tt, http.StatusNotFound, rec.Code, body)
			err := decodeError(tt, rec)
			assert.Equal(tt, "missing_parameters", err["code"])
			assert.Equal(tt, "Expecting mandatory parameters!", err["message"])
		}
	})

	t.Run("rating out of range", func(tt *testing.T) {
		body := `{"name":"Dune","releaseDate":"1965-08-01","catalogEntryDate":"2024-02-03","rating":11}`
		rec := ts.do(tt, jsonRequest(http.MethodPost, "/api/v1/books", body), nil)
		assert.Equal(tt, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(tt, `"rating" must be less than or equal to 10`, decodeError(tt, rec)["message"])
	})

	t.Run("bad date", func(tt *testing.T) {
		body := `{"name":"Dune","releaseDate":"08/01/1965","catalogEntryDate":"2024-02-03","rating":5}`
		rec := ts.do(tt, jsonRequest(http.MethodPost, "/api/v1/books", body), nil)
		assert.Equal(tt, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown fields", func(tt *testing.T) {
		body := `{"name":"Dune","releaseDate":"1965-08-01","catalogEntryDate":"2024-02-03","rating":5,"likes":3}`
		rec := ts.do(tt, jsonRequest(http.MethodPost, "/api/v1/books", body), nil)
		assert.Equal(tt, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAPI_RetrieveUpdateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)
	g1 := createGenre(t, ts.db, "Fantasy")
	g2 := createGenre(t, ts.db, "Classics")
	book := createBook(t, ts.svc, "The Hobbit", bookOpts{genres: []int{g1.ID}})
	_, err := ts.db.NewUpdate().Model(book).Set("likes = 12").WherePK().Exec(ctx)
	require.NoError(t, err)
	path := "/api/v1/books/" + strconv.Itoa(book.ID)

	t.Run("retrieve", func(tt *testing.T) {
		rec := ts.do(tt, httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(tt, http.StatusOK, rec.Code)
		assert.Contains(tt, rec.Body.String(), `"name":"The Hobbit"`)
		assert.Contains(tt, rec.Body.String(), `"genre":"Fantasy"`)
	})

	t.Run("retrieve unknown", func(tt *testing.T) {
		for _, p := range []string{"/api/v1/books/999", "/api/v1/books/abc"} {
			rec := ts.do(tt, httptest.NewRequest(http.MethodGet, p, nil), nil)
			assert.Equal(tt, http.StatusNotFound, rec.Code)
			assert.Equal(tt, "not_found", decodeError(tt, rec)["code"])
		}
	})

	t.Run("update", func(tt *testing.T) {
		body := `{"name":"The Hobbit, or There and Back Again","releaseDate":"1937-09-21","catalogEntryDate":"2024-03-01 08:00:00","rating":9.5,"genre":[` + strconv.Itoa(g2.ID) + `]}`
		rec := ts.do(tt, jsonRequest(http.MethodPut, path, body), nil)
		require.Equal(tt, http.StatusOK, rec.Code)

		got := models.BookProjection{}
		require.NoError(tt, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(tt, "The Hobbit, or There and Back Again", got.Name)
		assert.Equal(tt, "1937-09-21 00:00:00", got.ReleaseDate)
		assert.Equal(tt, 9.5, got.Rating)
		assert.Equal(tt, "Classics", got.Genre)

		stored, err := ts.svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
		require.NoError(tt, err)
		assert.Equal(tt, 12, stored.Likes)
	})

	t.Run("update missing fields", func(tt *testing.T) {
		rec := ts.do(tt, jsonRequest(http.MethodPut, path, `{"name":"Nope"}`), nil)
		assert.Equal(tt, http.StatusNotFound, rec.Code)
		assert.Equal(tt, "missing_parameters", decodeError(tt, rec)["code"])
	})

	t.Run("update unknown", func(tt *testing.T) {
		body := `{"name":"X","releaseDate":"1937-09-21","catalogEntryDate":"2024-03-01","rating":1}`
		rec := ts.do(tt, jsonRequest(http.MethodPut, "/api/v1/books/999", body), nil)
		assert.Equal(tt, http.StatusNotFound, rec.Code)
		assert.Equal(tt, "not_found", decodeError(tt, rec)["code"])
	})

	t.Run("delete", func(tt *testing.T) {
		rec := ts.do(tt, httptest.NewRequest(http.MethodDelete, path, nil), nil)
		assert.Equal(tt, http.StatusOK, rec.Code)
		assert.JSONEq(tt, `{"status":"Book deleted"}`, rec.Body.String())

		rec = ts.do(tt, httptest.NewRequest(http.MethodDelete, path, nil), nil)
		assert.Equal(tt, http.StatusNotFound, rec.Code)
	})
}

func TestWeb_Index(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	g := createGenre(t, ts.db, "Fantasy")
	a := createAuthor(t, ts.db, "Le Guin")
	for i := 1; i <= 7; i++ {
		opts := bookOpts{}
		if i%2 == 0 {
			opts.genres = []int{g.ID}
		}
		createBook(t, ts.svc, "Book "+strconv.Itoa(i), opts)
	}
	createBook(t, ts.svc, "A Wizard of Earthsea", bookOpts{release: "1968-11-01", authors: []int{a.ID}})

	get := func(target string, pjax bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if pjax {
			req.Header.Set("X-PJAX", "true")
		}
		return ts.do(t, req, nil)
	}

	t.Run("full page", func(tt *testing.T) {
		rec := get("/", false)
		require.Equal(tt, http.StatusOK, rec.Code)
		html := rec.Body.String()
		assert.Contains(tt, html, "<html")
		assert.Contains(tt, html, "8 book(s)")
		assert.Contains(tt, html, "Latest additions")
		assert.Contains(tt, html, `<option value="`+strconv.Itoa(g.ID)+`">Fantasy</option>`)
	})

	t.Run("pages by the configured size", func(tt *testing.T) {
		html := get("/", true).Body.String()
		assert.Contains(tt, html, "Book 5<")
		assert.NotContains(tt, html, "Book 6<")

		html = get("/?page=2", true).Body.String()
		assert.NotContains(tt, html, "Book 5<")
		assert.Contains(tt, html, "Book 6<")
		assert.Contains(tt, html, "A Wizard of Earthsea")
	})

	t.Run("a huge page number is an empty page", func(tt *testing.T) {
		rec := get("/?page=9223372036854775807", true)
		require.Equal(tt, http.StatusOK, rec.Code)
		html := rec.Body.String()
		assert.Contains(tt, html, "8 book(s)")
		assert.NotContains(tt, html, "Book 1<")
		assert.NotContains(tt, html, "A Wizard of Earthsea")
	})

	t.Run("pjax gets the fragment only", func(tt *testing.T) {
		rec := get("/?genre="+strconv.Itoa(g.ID), true)
		require.Equal(tt, http.StatusOK, rec.Code)
		html := rec.Body.String()
		assert.NotContains(tt, html, "<html")
		assert.Contains(tt, html, `<div id="grid">`)
		assert.Contains(tt, html, "3 book(s)")
		assert.Contains(tt, html, "Book 2")
		assert.NotContains(tt, html, "Book 1<")
	})

	t.Run("release date range", func(tt *testing.T) {
		rec := get("/?date_start=1960-01-01&date_end=1968-11-01", true)
		assert.Contains(tt, rec.Body.String(), "1 book(s)")
		assert.Contains(tt, rec.Body.String(), "A Wizard of Earthsea")
	})

	t.Run("search matches author names", func(tt *testing.T) {
		rec := get("/?search=le+guin", true)
		assert.Contains(tt, rec.Body.String(), "1 book(s)")
		assert.Contains(tt, rec.Body.String(), "A Wizard of Earthsea")
	})

	t.Run("invalid query shows the error", func(tt *testing.T) {
		rec := get("/?date_start=yesterday", false)
		assert.Equal(tt, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(tt, rec.Body.String(), "date_start")
		assert.Contains(tt, rec.Body.String(), "8 book(s)")
	})
}

func TestWeb_Show(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	g := createGenre(t, ts.db, "Fantasy")
	target := createBook(t, ts.svc, "Target", bookOpts{genres: []int{g.ID}})
	createBook(t, ts.svc, "Sibling", bookOpts{genres: []int{g.ID}})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/books/"+strconv.Itoa(target.ID), nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Target</h1>")
	assert.Contains(t, rec.Body.String(), "Sibling")
	assert.Contains(t, rec.Body.String(), `<strong class="score">0</strong>`)

	req := httptest.NewRequest(http.MethodGet, "/books/999", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMETextHTML)
	rec = ts.do(t, req, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book not found.")
}

func TestWeb_CreateAndEdit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)
	g := createGenre(t, ts.db, "Fantasy")

	valid := url.Values{
		"name":             {"Dune"},
		"releaseDate":      {"1965-08-01"},
		"catalogEntryDate": {"2024-02-03 04:05:06"},
		"rating":           {"8.5"},
		"genre":            {strconv.Itoa(g.ID)},
	}

	t.Run("form renders", func(tt *testing.T) {
		rec := ts.do(tt, httptest.NewRequest(http.MethodGet, "/books/new", nil), nil)
		assert.Equal(tt, http.StatusOK, rec.Code)
		assert.Contains(tt, rec.Body.String(), "New book")
		assert.Contains(tt, rec.Body.String(), "Fantasy")
	})

	t.Run("invalid input re-renders with the error", func(tt *testing.T) {
		form := url.Values{"name": {"Dune"}, "releaseDate": {"1965-08-01"}, "catalogEntryDate": {"2024-02-03"}}
		rec := ts.do(tt, formRequest("/books/new", form), nil)
		assert.Equal(tt, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(tt, rec.Body.String(), "&#34;rating&#34; is required")
		assert.Contains(tt, rec.Body.String(), `value="Dune"`)
	})

	t.Run("rejects non-image avatars", func(tt *testing.T) {
		req := multipartRequest(tt, "/books/new", valid, []byte("not an image at all"))
		rec := ts.do(tt, req, nil)
		assert.Equal(tt, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(tt, rec.Body.String(), "must be a JPEG, PNG, GIF or WebP image")
	})

	var book *models.Book

	t.Run("creates with an avatar", func(tt *testing.T) {
		rec := ts.do(tt, multipartRequest(tt, "/books/new", valid, pngBytes(tt)), nil)
		require.Equal(tt, http.StatusSeeOther, rec.Code)

		books, err := ts.svc.ListBooks(ctx, ListBooksOptions{})
		require.NoError(tt, err)
		require.Len(tt, books, 1)
		book = books[0]
		assert.Equal(tt, "/books/"+strconv.Itoa(book.ID), rec.Header().Get(echo.HeaderLocation))
		assert.Equal(tt, 8.5, book.Rating)
		assert.Equal(tt, []int{g.ID}, book.GenreIDs())
		require.NotNil(tt, book.Avatar)
		_, err = os.Stat(filepath.Join(ts.store.Dir(), *book.Avatar))
		assert.NoError(tt, err)
	})

	t.Run("edit form is prefilled", func(tt *testing.T) {
		require.NotNil(tt, book)
		rec := ts.do(tt, httptest.NewRequest(http.MethodGet, "/books/"+strconv.Itoa(book.ID)+"/edit", nil), nil)
		assert.Equal(tt, http.StatusOK, rec.Code)
		assert.Contains(tt, rec.Body.String(), `value="1965-08-01"`)
		assert.Contains(tt, rec.Body.String(), `value="8.5"`)
		assert.Contains(tt, rec.Body.String(), "Remove the current cover")
	})

	t.Run("update can remove the avatar", func(tt *testing.T) {
		require.NotNil(tt, book)
		old := *book.Avatar
		form := url.Values{
			"name":             {"Dune Messiah"},
			"releaseDate":      {"1969-01-01"},
			"catalogEntryDate": {"2024-02-03"},
			"rating":           {"7"},
			"removeAvatar":     {"true"},
		}
		rec := ts.do(tt, multipartRequest(tt, "/books/"+strconv.Itoa(book.ID)+"/edit", form, nil), nil)
		require.Equal(tt, http.StatusSeeOther, rec.Code)

		got, err := ts.svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
		require.NoError(tt, err)
		assert.Equal(tt, "Dune Messiah", got.Name)
		assert.Nil(tt, got.Avatar)
		assert.Empty(tt, got.Genres)
		_, err = os.Stat(filepath.Join(ts.store.Dir(), old))
		assert.True(tt, os.IsNotExist(err))
	})

	t.Run("delete", func(tt *testing.T) {
		require.NotNil(tt, book)
		path := "/books/" + strconv.Itoa(book.ID) + "/delete"
		rec := ts.do(tt, httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(tt, http.StatusOK, rec.Code)
		assert.Contains(tt, rec.Body.String(), `Delete "Dune Messiah"?`)

		rec = ts.do(tt, httptest.NewRequest(http.MethodPost, path, nil), nil)
		assert.Equal(tt, http.StatusSeeOther, rec.Code)
		_, err := ts.svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
		assert.Equal(tt, errcodes.NotFound("Book"), err)
	})
}

func TestWeb_Favorites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)
	user := createUser(t, ts.db, "reader")
	book := createBook(t, ts.svc, "Dune", bookOpts{})
	path := "/books/" + strconv.Itoa(book.ID)

	t.Run("anonymous users are sent to sign in", func(tt *testing.T) {
		req := httptest.NewRequest(http.MethodPost, path+"/favorite", nil)
		req.Header.Set("Referer", path)
		rec := ts.do(tt, req, nil)
		assert.Equal(tt, http.StatusSeeOther, rec.Code)
		assert.True(tt, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/login?next="))
	})

	t.Run("favorite and unfavorite", func(tt *testing.T) {
		rec := ts.do(tt, httptest.NewRequest(http.MethodPost, path+"/favorite", nil), user)
		assert.Equal(tt, http.StatusSeeOther, rec.Code)
		assert.Equal(tt, path, rec.Header().Get(echo.HeaderLocation))

		favorites, err := ts.svc.FavoritesForUser(ctx, user.ID)
		require.NoError(tt, err)
		assert.Equal(tt, []int{book.ID}, ids(favorites))

		rec = ts.do(tt, httptest.NewRequest(http.MethodGet, "/", nil), user)
		assert.Contains(tt, rec.Body.String(), "Your favorites")

		rec = ts.do(tt, httptest.NewRequest(http.MethodGet, path, nil), user)
		assert.Contains(tt, rec.Body.String(), path+"/unfavorite")

		rec = ts.do(tt, httptest.NewRequest(http.MethodPost, path+"/unfavorite", nil), user)
		assert.Equal(tt, http.StatusSeeOther, rec.Code)
		favorites, err = ts.svc.FavoritesForUser(ctx, user.ID)
		require.NoError(tt, err)
		assert.Empty(tt, favorites)
	})

	t.Run("unknown book", func(tt *testing.T) {
		rec := ts.do(tt, httptest.NewRequest(http.MethodPost, "/books/999/favorite", nil), user)
		assert.Equal(tt, http.StatusNotFound, rec.Code)
	})
}
