package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

// DateTimeFormat is how dates are rendered in API projections and accepted in
// payloads alongside the bare DateFormat.
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04:05"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID               int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt        time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Name             string    `bun:",notnull" json:"name"`
	SearchName       string    `bun:",notnull" json:"-"`
	ReleaseDate      time.Time `bun:",notnull" json:"release_date"`
	CatalogEntryDate time.Time `bun:",notnull" json:"catalog_entry_date"`
	Rating           float64   `bun:",notnull" json:"rating"`
	Likes            int       `bun:",notnull" json:"likes"`
	Dislikes         int       `bun:",notnull" json:"dislikes"`
	Avatar           *string   `json:"avatar"`

	Genres      []*Genre  `bun:"m2m:book_genres,join:Book=Genre" json:"genres,omitempty"`
	Authors     []*Author `bun:"m2m:book_authors,join:Book=Author" json:"authors,omitempty"`
	FavoritedBy []*User   `bun:"m2m:book_favorites,join:Book=User" json:"-"`
}

// GenreIDs returns the ids of the loaded genres.
func (b *Book) GenreIDs() []int {
	return lo.Map(b.Genres, func(g *Genre, _ int) int { return g.ID })
}

// AuthorIDs returns the ids of the loaded authors.
func (b *Book) AuthorIDs() []int {
	return lo.Map(b.Authors, func(a *Author, _ int) int { return a.ID })
}

// GenreNames joins the loaded genre names with ", ".
func (b *Book) GenreNames() string {
	return strings.Join(lo.Map(b.Genres, func(g *Genre, _ int) string { return g.Name }), ", ")
}

// AuthorNames joins the loaded author names with ", ".
func (b *Book) AuthorNames() string {
	return strings.Join(lo.Map(b.Authors, func(a *Author, _ int) string { return a.Name }), ", ")
}

// IsFavoriteOf reports whether the loaded FavoritedBy relation contains the user.
func (b *Book) IsFavoriteOf(userID int) bool {
	return lo.ContainsBy(b.FavoritedBy, func(u *User) bool { return u.ID == userID })
}

// BookProjection is the flat shape books take in the REST API.
type BookProjection struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	ReleaseDate      string  `json:"releaseDate"`
	CatalogEntryDate string  `json:"catalogEntryDate"`
	Rating           float64 `json:"rating"`
	Genre            string  `json:"genre"`
	Author           string  `json:"author"`
}

// Project expects Genres and Authors to be loaded.
func (b *Book) Project() *BookProjection {
	return &BookProjection{
		ID:               b.ID,
		Name:             b.Name,
		ReleaseDate:      b.ReleaseDate.Format(DateTimeFormat),
		CatalogEntryDate: b.CatalogEntryDate.Format(DateTimeFormat),
		Rating:           b.Rating,
		Genre:            b.GenreNames(),
		Author:           b.AuthorNames(),
	}
}

type BookGenre struct {
	bun.BaseModel `bun:"table:book_genres,alias:bg"`

	BookID  int    `bun:",pk"`
	Book    *Book  `bun:"rel:belongs-to,join:book_id=id"`
	GenreID int    `bun:",pk"`
	Genre   *Genre `bun:"rel:belongs-to,join:genre_id=id"`
}

type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	BookID   int     `bun:",pk"`
	Book     *Book   `bun:"rel:belongs-to,join:book_id=id"`
	AuthorID int     `bun:",pk"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id"`
}

type BookFavorite struct {
	bun.BaseModel `bun:"table:book_favorites,alias:bf"`

	BookID    int       `bun:",pk"`
	Book      *Book     `bun:"rel:belongs-to,join:book_id=id"`
	UserID    int       `bun:",pk"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
