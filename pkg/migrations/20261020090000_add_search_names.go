package migrations

import (
	"context"

	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

var searchTables = []string{"books", "authors", "genres"}

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		for _, table := range searchTables {
			_, err := db.Exec("ALTER TABLE " + table + " ADD COLUMN search_name TEXT NOT NULL DEFAULT ''")
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return backfillSearchNames(ctx, db)
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range searchTables {
			_, err := db.Exec("ALTER TABLE " + table + " DROP COLUMN search_name")
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}

type namedRow struct {
	ID   int    `bun:"id"`
	Name string `bun:"name"`
}

// backfillSearchNames writes the folded name of every row, since SQLite's own
// LOWER only knows ASCII.
func backfillSearchNames(ctx context.Context, db bun.IDB) error {
	for _, table := range searchTables {
		rows := []namedRow{}
		err := db.NewSelect().
			TableExpr(table).
			Column("id", "name").
			Scan(ctx, &rows)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, row := range rows {
			_, err := db.NewUpdate().
				Table(table).
				Set("search_name = ?", models.SearchKey(row.Name)).
				Where("id = ?", row.ID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}
