package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Login        string    `bun:",notnull" json:"login"`
	PasswordHash string    `bun:",notnull" json:"-"` // Never expose password hash
	Avatar       *string   `json:"avatar,omitempty"`

	Favorites []*Book `bun:"m2m:book_favorites,join:User=Book" json:"-"`
}
