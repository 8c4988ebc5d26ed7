package authors

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/libracat/libracat/pkg/database"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/filter"
	"github.com/libracat/libracat/pkg/migrations"
	"github.com/libracat/libracat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	database.RegisterModels(db)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newAuthor(name string) *models.Author {
	return &models.Author{
		Name:     name,
		BornDate: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:   "unknown",
	}
}

func TestAuthorLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)

	a := newAuthor("Kafka")
	require.NoError(t, svc.CreateAuthor(ctx, a))
	assert.NotZero(t, a.ID)

	a.Gender = "male"
	a.BornDate = time.Date(1883, 7, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.UpdateAuthor(ctx, a, UpdateAuthorOptions{Columns: []string{"gender", "born_date"}}))

	got, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, "male", got.Gender)
	assert.Equal(t, "1883-07-03 00:00:00", got.Project().BornDate)

	require.NoError(t, svc.DeleteAuthor(ctx, a.ID))
	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &a.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))

	missing := newAuthor("Nobody")
	missing.ID = 404
	err = svc.UpdateAuthor(ctx, missing, UpdateAuthorOptions{Columns: []string{"name"}})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
}

func TestDeleteAuthor_RemovesBookLinks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)

	a := newAuthor("Borges")
	require.NoError(t, svc.CreateAuthor(ctx, a))
	b := &models.Book{Name: "Ficciones", ReleaseDate: time.Now(), CatalogEntryDate: time.Now()}
	_, err := db.NewInsert().Model(b).Returning("*").Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.BookAuthor{BookID: b.ID, AuthorID: a.ID}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAuthor(ctx, a.ID))

	count, err := db.NewSelect().Model((*models.BookAuthor)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFindByFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)

	first := newAuthor("First")
	second := newAuthor("Second")
	require.NoError(t, svc.CreateAuthor(ctx, first))
	require.NoError(t, svc.CreateAuthor(ctx, second))

	all, total, err := svc.FindByFilter(ctx, filter.Filter{}, ListAuthorsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, first.ID, all[0].ID)

	f, err := filter.New(0, second.ID, "", "")
	require.NoError(t, err)
	one, total, err := svc.FindByFilter(ctx, f, ListAuthorsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Second", one[0].Name)
}
