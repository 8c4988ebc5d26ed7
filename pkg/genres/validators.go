package genres

// GenrePayload is the REST create and update body.
type GenrePayload struct {
	Name string `json:"name" mod:"trim" validate:"max=255"`
}

// GenreForm is the web create and edit form.
type GenreForm struct {
	Name string `form:"name" json:"name" mod:"trim" validate:"required,max=255"`
}

// IndexQuery is the genre index query string.
type IndexQuery struct {
	Page  int    `query:"page" json:"page" default:"1" validate:"min=1"`
	Genre int    `query:"genre" json:"genre" validate:"min=0"`
	PJAX  string `query:"_pjax" json:"-"`
}
