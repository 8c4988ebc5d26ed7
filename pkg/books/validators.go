package books

import (
	"mime/multipart"

	"github.com/libracat/libracat/pkg/models"
)

// BookPayload is the REST create and update body. Mandatory fields carry no
// required tag: their absence is reported as missing parameters, not as a
// validation error.
type BookPayload struct {
	Name             string   `json:"name" mod:"trim" validate:"max=255"`
	ReleaseDate      string   `json:"releaseDate" mod:"trim" validate:"omitempty,date"`
	CatalogEntryDate string   `json:"catalogEntryDate" mod:"trim" validate:"omitempty,date"`
	Rating           *float64 `json:"rating" validate:"omitempty,min=0,max=10"`
	Genre            []int    `json:"genre"`
	Author           []int    `json:"author"`
}

// MissingMandatory reports whether any field a book can't exist without is
// absent.
func (p BookPayload) MissingMandatory() bool {
	return p.Name == "" || p.ReleaseDate == "" || p.CatalogEntryDate == "" || p.Rating == nil
}

// BookForm is the web create and edit form.
type BookForm struct {
	Name             string   `form:"name" json:"name" mod:"trim" validate:"required,max=255"`
	ReleaseDate      string   `form:"releaseDate" json:"releaseDate" mod:"trim" validate:"required,date"`
	CatalogEntryDate string   `form:"catalogEntryDate" json:"catalogEntryDate" mod:"trim" validate:"required,date"`
	Rating           *float64 `form:"rating" json:"rating" validate:"required,min=0,max=10"`
	Genre            []int    `form:"genre" json:"genre"`
	Author           []int    `form:"author" json:"author"`
	RemoveAvatar     bool     `form:"removeAvatar" json:"removeAvatar"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

func formFromBook(book *models.Book) BookForm {
	rating := book.Rating
	return BookForm{
		Name:             book.Name,
		ReleaseDate:      book.ReleaseDate.UTC().Format(models.DateFormat),
		CatalogEntryDate: book.CatalogEntryDate.UTC().Format(models.DateTimeFormat),
		Rating:           &rating,
		Genre:            book.GenreIDs(),
		Author:           book.AuthorIDs(),
	}
}

// IndexQuery is the book index query string: paging, the filter form and the
// omnibox.
type IndexQuery struct {
	Page      int    `query:"page" json:"page" default:"1" validate:"min=1"`
	Genre     int    `query:"genre" json:"genre" validate:"min=0"`
	Author    int    `query:"author" json:"author" validate:"min=0"`
	DateStart string `query:"date_start" json:"date_start" mod:"trim" validate:"omitempty,date"`
	DateEnd   string `query:"date_end" json:"date_end" mod:"trim" validate:"omitempty,date"`
	Search    string `query:"search" json:"search" mod:"trim" validate:"max=255"`
	PJAX      string `query:"_pjax" json:"-"`
}
