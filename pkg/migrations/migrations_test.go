package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func newDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestBringUpToDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	for _, table := range []string{"books", "authors", "genres", "users", "book_genres", "book_authors", "book_favorites"} {
		var count int
		err := db.NewSelect().
			TableExpr("sqlite_master").
			ColumnExpr("COUNT(*)").
			Where("type = 'table' AND name = ?", table).
			Scan(ctx, &count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}

	// a second run is a no-op
	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, group.ID)
}

func TestRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	migrator := migrate.NewMigrator(db, Migrations)
	_, err = migrator.Rollback(ctx)
	require.NoError(t, err)

	var count int
	err = db.NewSelect().
		TableExpr("sqlite_master").
		ColumnExpr("COUNT(*)").
		Where("type = 'table' AND name = 'books'").
		Scan(ctx, &count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUniqueLoginIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO users (login, password_hash) VALUES ('Reader', 'x')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO users (login, password_hash) VALUES ('reader', 'y')")
	assert.Error(t, err)
}

func TestBackfillSearchNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO genres (name) VALUES ('Русская Классика')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO authors (name, born_date, gender) VALUES ('Émile Zola', '1840-04-02', 'male')")
	require.NoError(t, err)

	require.NoError(t, backfillSearchNames(ctx, db))

	var genre, author string
	require.NoError(t, db.QueryRow("SELECT search_name FROM genres").Scan(&genre))
	require.NoError(t, db.QueryRow("SELECT search_name FROM authors").Scan(&author))
	assert.Equal(t, "русская классика", genre)
	assert.Equal(t, "émile zola", author)
}
