package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID         int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Name       string    `bun:",notnull" json:"name"`
	SearchName string    `bun:",notnull" json:"-"`
	BornDate   time.Time `bun:",notnull" json:"born_date"`
	Gender     string    `bun:",notnull" json:"gender"`
}

type AuthorProjection struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	BornDate string `json:"bornDate"`
	Gender   string `json:"gender"`
}

func (a *Author) Project() *AuthorProjection {
	return &AuthorProjection{
		ID:       a.ID,
		Name:     a.Name,
		BornDate: a.BornDate.Format(DateTimeFormat),
		Gender:   a.Gender,
	}
}
