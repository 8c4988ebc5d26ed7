package models

import (
	"context"

	"github.com/uptrace/bun"
	"golang.org/x/text/cases"
)

// SearchKey folds s the way search_name columns are stored, so a LIKE over
// them is case-insensitive for any script.
func SearchKey(s string) string {
	return cases.Fold().String(s)
}

var (
	_ bun.BeforeAppendModelHook = (*Book)(nil)
	_ bun.BeforeAppendModelHook = (*Author)(nil)
	_ bun.BeforeAppendModelHook = (*Genre)(nil)
)

func (b *Book) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if writes(query) {
		b.SearchName = SearchKey(b.Name)
	}
	return nil
}

func (a *Author) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if writes(query) {
		a.SearchName = SearchKey(a.Name)
	}
	return nil
}

func (g *Genre) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if writes(query) {
		g.SearchName = SearchKey(g.Name)
	}
	return nil
}

func writes(query bun.Query) bool {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		return true
	}
	return false
}

// WithSearchName adds search_name to an update column list that writes name.
func WithSearchName(columns []string) []string {
	for _, c := range columns {
		if c == "name" {
			return append(columns, "search_name")
		}
	}
	return columns
}
