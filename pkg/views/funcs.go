package views

import (
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/libracat/libracat/pkg/avatars"
	"github.com/libracat/libracat/pkg/models"
	"github.com/libracat/libracat/pkg/rating"
	"github.com/libracat/libracat/pkg/version"
	"github.com/samber/lo"
)

func funcs() template.FuncMap {
	return template.FuncMap{
		"avatarURL": avatars.URL,
		"rating":    rating.Compute,
		"ratingMax": func() int { return rating.Max },
		"date":      formatTime(models.DateFormat),
		"datetime":  formatTime(models.DateTimeFormat),
		"withPage":  withPage,
		"hasID":     lo.Contains[int],
		"version":   func() string { return version.Version },
		"deref": func(f *float64) string {
			if f == nil {
				return ""
			}
			return strconv.FormatFloat(*f, 'f', -1, 64)
		},
	}
}

func formatTime(layout string) func(time.Time) string {
	return func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(layout)
	}
}

// withPage keeps the current filters and swaps the page number.
func withPage(query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		if k == "_pjax" {
			continue
		}
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return "?" + q.Encode()
}
