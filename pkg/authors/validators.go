package authors

import (
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/models"
)

// AuthorPayload is the REST create and update body. Mandatory fields carry no
// required tag: their absence is reported as missing parameters.
type AuthorPayload struct {
	Name     string `json:"name" mod:"trim" validate:"max=255"`
	BornDate string `json:"bornDate" mod:"trim" validate:"omitempty,date"`
	Gender   string `json:"gender" mod:"trim" validate:"max=255"`
}

// MissingMandatory reports whether any of name, bornDate or gender is empty.
func (p AuthorPayload) MissingMandatory() bool {
	return p.Name == "" || p.BornDate == "" || p.Gender == ""
}

// AuthorForm is the web create and edit form.
type AuthorForm struct {
	Name     string `form:"name" json:"name" mod:"trim" validate:"required,max=255"`
	BornDate string `form:"bornDate" json:"bornDate" mod:"trim" validate:"required,date"`
	Gender   string `form:"gender" json:"gender" mod:"trim" validate:"required,max=255"`
}

func formFromAuthor(author *models.Author) AuthorForm {
	return AuthorForm{
		Name:     author.Name,
		BornDate: author.BornDate.UTC().Format(models.DateFormat),
		Gender:   author.Gender,
	}
}

// IndexQuery is the author index query string.
type IndexQuery struct {
	Page   int    `query:"page" json:"page" default:"1" validate:"min=1"`
	Author int    `query:"author" json:"author" validate:"min=0"`
	PJAX   string `query:"_pjax" json:"-"`
}

// applyFields copies validated values onto author.
func applyFields(author *models.Author, name, bornDate, gender string) error {
	born, err := models.ParseDate(bornDate)
	if err != nil {
		return errcodes.ValidationError(`"bornDate" should be in the format of YYYY-MM-DD or YYYY-MM-DD HH:MM:SS`)
	}
	author.Name = name
	author.BornDate = born
	author.Gender = gender
	return nil
}
