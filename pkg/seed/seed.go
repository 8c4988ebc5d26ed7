// Package seed fills an empty catalog with demonstration data.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/libracat/libracat/pkg/authors"
	"github.com/libracat/libracat/pkg/books"
	"github.com/libracat/libracat/pkg/genres"
	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Count is how many genres, authors and books Catalog inserts.
const Count = 19

var (
	genreWords  = []string{"Epic", "Cozy", "Hard", "Urban", "Gothic", "Space", "Historical", "Dark", "Literary"}
	genreNouns  = []string{"Fantasy", "Mystery", "Science Fiction", "Romance", "Horror", "Opera", "Thriller", "Satire"}
	firstNames  = []string{"Ada", "Boris", "Clara", "Dmitri", "Elena", "Felix", "Greta", "Hugo", "Irene", "Jonas"}
	lastNames   = []string{"Abbott", "Bauer", "Castillo", "Dvorak", "Eklund", "Ferrante", "Grimaldi", "Holm"}
	genders     = []string{"female", "male", "unknown"}
	titleStarts = []string{"The Silent", "A Winter", "The Last", "Beyond the", "The Glass", "Under the", "The Iron"}
	titleEnds   = []string{"Harbor", "Orchard", "Cartographer", "Lantern", "Garden", "Archive", "Tide", "Crown"}
)

// Result reports what Catalog inserted.
type Result struct {
	Genres  int
	Authors int
	Books   int
}

// Catalog inserts Count genres, Count authors and Count books, each book
// linked to one genre and one author. The same seed value always produces the
// same catalog.
func Catalog(ctx context.Context, db *bun.DB, seed uint64) (*Result, error) {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	genreService := genres.NewService(db)
	authorService := authors.NewService(db)
	bookService := books.NewService(db)

	genreIDs := make([]int, 0, Count)
	for i := 0; i < Count; i++ {
		genre := &models.Genre{Name: fmt.Sprintf("%s %s", pick(r, genreWords), pick(r, genreNouns))}
		if err := genreService.CreateGenre(ctx, genre); err != nil {
			return nil, errors.Wrap(err, "failed to seed genre")
		}
		genreIDs = append(genreIDs, genre.ID)
	}

	authorIDs := make([]int, 0, Count)
	for i := 0; i < Count; i++ {
		author := &models.Author{
			Name:     fmt.Sprintf("%s %s", pick(r, firstNames), pick(r, lastNames)),
			BornDate: randomDate(r, 1900, 2000),
			Gender:   pick(r, genders),
		}
		if err := authorService.CreateAuthor(ctx, author); err != nil {
			return nil, errors.Wrap(err, "failed to seed author")
		}
		authorIDs = append(authorIDs, author.ID)
	}

	for i := 0; i < Count; i++ {
		book := &models.Book{
			Name:             fmt.Sprintf("%s %s", pick(r, titleStarts), pick(r, titleEnds)),
			ReleaseDate:      randomDate(r, 1950, 2024),
			CatalogEntryDate: randomDate(r, 2015, 2025),
			Rating:           float64(r.IntN(101)) / 10,
		}
		genreID := genreIDs[r.IntN(len(genreIDs))]
		authorID := authorIDs[r.IntN(len(authorIDs))]
		if err := bookService.CreateBook(ctx, book, []int{genreID}, []int{authorID}); err != nil {
			return nil, errors.Wrap(err, "failed to seed book")
		}
	}

	return &Result{Genres: Count, Authors: Count, Books: Count}, nil
}

func pick(r *rand.Rand, words []string) string {
	return words[r.IntN(len(words))]
}

func randomDate(r *rand.Rand, fromYear, toYear int) time.Time {
	start := time.Date(fromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(toYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, r.IntN(days))
}
