// Package filter holds the optional criteria the catalog index pages narrow
// their listings with.
package filter

import (
	"time"

	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
)

// Filter is request scoped and never persisted. A nil field means the
// criterion is absent.
type Filter struct {
	StartReleaseDate *time.Time
	EndReleaseDate   *time.Time
	GenreID          *int
	AuthorID         *int
}

// New builds a Filter from raw form values. Zero ids and empty dates are
// treated as absent.
func New(genreID, authorID int, dateStart, dateEnd string) (Filter, error) {
	f := Filter{}
	if genreID > 0 {
		f.GenreID = &genreID
	}
	if authorID > 0 {
		f.AuthorID = &authorID
	}
	if dateStart != "" {
		d, err := models.ParseDate(dateStart)
		if err != nil {
			return Filter{}, errors.WithStack(err)
		}
		f.StartReleaseDate = &d
	}
	if dateEnd != "" {
		d, err := models.ParseDate(dateEnd)
		if err != nil {
			return Filter{}, errors.WithStack(err)
		}
		f.EndReleaseDate = &d
	}
	return f, nil
}

// IsEmpty reports whether no criterion is set.
func (f Filter) IsEmpty() bool {
	return f.StartReleaseDate == nil && f.EndReleaseDate == nil && f.GenreID == nil && f.AuthorID == nil
}

// EndBefore returns the exclusive upper bound for release dates: the start of
// the day after EndReleaseDate, so the whole end day matches.
func (f Filter) EndBefore() *time.Time {
	if f.EndReleaseDate == nil {
		return nil
	}
	y, m, d := f.EndReleaseDate.Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	return &end
}
