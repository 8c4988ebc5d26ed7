package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID         int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Name       string    `bun:",notnull" json:"name"`
	SearchName string    `bun:",notnull" json:"-"`
}

type GenreProjection struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (g *Genre) Project() *GenreProjection {
	return &GenreProjection{ID: g.ID, Name: g.Name}
}
