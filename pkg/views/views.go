package views

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
)

//go:embed templates static
var files embed.FS

const (
	layoutFile   = "templates/layout.html"
	partialsGlob = "templates/partials/*.html"
)

// Page is what every template executes against. Handlers only supply Data.
type Page struct {
	User  *models.User
	Path  string
	Query url.Values
	Data  interface{}
}

// Renderer implements echo.Renderer over the embedded templates. Names ending
// in .html are full pages wrapped in the layout; other names are fragments
// defined in templates/partials, used for PJAX responses.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// New parses every page together with the layout and the shared partials.
func New() (*Renderer, error) {
	partials, err := template.New("partials").Funcs(funcs()).ParseFS(files, partialsGlob)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pageFiles, err := fs.Glob(files, "templates/*/*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rootFiles, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pages := map[string]*template.Template{}
	for _, file := range append(rootFiles, pageFiles...) {
		if file == layoutFile || strings.HasPrefix(file, "templates/partials/") {
			continue
		}
		tmpl, err := template.New(path.Base(file)).Funcs(funcs()).ParseFS(files, layoutFile, partialsGlob, file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", file)
		}
		pages[strings.TrimPrefix(file, "templates/")] = tmpl
	}

	return &Renderer{pages: pages, partials: partials}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	page := Page{Data: data}
	if c != nil {
		page.User, _ = c.Get("user").(*models.User)
		page.Path = c.Request().URL.Path
		page.Query = c.QueryParams()
	}

	if tmpl, ok := r.pages[name]; ok {
		return errors.WithStack(tmpl.ExecuteTemplate(w, "layout", page))
	}
	if tmpl := r.partials.Lookup(name); tmpl != nil {
		return errors.WithStack(tmpl.Execute(w, page))
	}
	return errors.Errorf("template %q not found", name)
}

// IsPJAX reports whether the request only wants the list fragment.
func IsPJAX(c echo.Context) bool {
	return c.Request().Header.Get("X-PJAX") != ""
}

// RegisterRoutes serves the embedded assets under /static and uploaded files
// under /uploads.
func RegisterRoutes(e *echo.Echo, uploadDir string) {
	static, _ := fs.Sub(files, "static")
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	e.Static("/uploads", uploadDir)
}
