package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/filter"
	"github.com/libracat/libracat/pkg/metrics"
	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

const (
	// RecommendationLimit is how many related books a book page shows.
	RecommendationLimit = 5
	// LatestLimit is how many books the "latest" sidebar shows.
	LatestLimit = 10
)

type RetrieveBookOptions struct {
	ID *int
}

type ListBooksOptions struct {
	Limit       *int
	Offset      *int
	Filter      *filter.Filter
	Search      *string
	FavoritedBy *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
	// UpdateLinks replaces the genre and author links with GenreIDs and
	// AuthorIDs.
	UpdateLinks bool
	GenreIDs    []int
	AuthorIDs   []int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts the book with no votes and links it to the genres and
// authors among the given ids that exist.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book, genreIDs, authorIDs []int) error {
	now := time.Now().UTC()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	book.Likes = 0
	book.Dislikes = 0

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return replaceLinks(ctx, tx, book.ID, genreIDs, authorIDs)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return svc.loadRelations(ctx, book)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Genres", orderByID("g")).
		Relation("Authors", orderByID("a")).
		Relation("FavoritedBy")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

// FindByFilter returns the books matching every criterion present in f, by id,
// along with the total count ignoring Limit and Offset.
func (svc *Service) FindByFilter(ctx context.Context, f filter.Filter, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.Filter = &f
	opts.Search = nil
	return svc.ListBooksWithTotal(ctx, opts)
}

// Search returns the books whose name, or the name of one of their authors or
// genres, contains term, case-insensitively. An empty term matches everything.
func (svc *Service) Search(ctx context.Context, term string, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.Filter = nil
	opts.Search = &term
	return svc.ListBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Genres", orderByID("g")).
		Relation("Authors", orderByID("a")).
		Order("b.id ASC")

	if opts.Filter != nil {
		q = applyFilter(q, *opts.Filter)
	}
	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		q = applySearch(q, strings.TrimSpace(*opts.Search))
	}
	if opts.FavoritedBy != nil {
		q = q.Where("b.id IN (SELECT bf.book_id FROM book_favorites AS bf WHERE bf.user_id = ?)", *opts.FavoritedBy)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func applyFilter(q *bun.SelectQuery, f filter.Filter) *bun.SelectQuery {
	if f.GenreID != nil {
		q = q.Where("b.id IN (SELECT fg.book_id FROM book_genres AS fg WHERE fg.genre_id = ?)", *f.GenreID)
	}
	if f.AuthorID != nil {
		q = q.Where("b.id IN (SELECT fa.book_id FROM book_authors AS fa WHERE fa.author_id = ?)", *f.AuthorID)
	}
	if f.StartReleaseDate != nil {
		q = q.Where("b.release_date >= ?", f.StartReleaseDate.UTC())
	}
	if end := f.EndBefore(); end != nil {
		q = q.Where("b.release_date < ?", *end)
	}
	return q
}

// likeEscaper escapes LIKE wildcards with "!" so user input matches literally.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// applySearch matches the folded term against the search_name columns, which
// hold models.SearchKey of each name.
func applySearch(q *bun.SelectQuery, term string) *bun.SelectQuery {
	pattern := "%" + likeEscaper.Replace(models.SearchKey(term)) + "%"
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where(`b.search_name LIKE ? ESCAPE '!'`, pattern).
			WhereOr(`b.id IN (SELECT sa.book_id FROM book_authors AS sa JOIN authors AS a2 ON a2.id = sa.author_id WHERE a2.search_name LIKE ? ESCAPE '!')`, pattern).
			WhereOr(`b.id IN (SELECT sg.book_id FROM book_genres AS sg JOIN genres AS g2 ON g2.id = sg.genre_id WHERE g2.search_name LIKE ? ESCAPE '!')`, pattern)
	})
}

// UpdateBook writes the given columns, and the genre and author links when
// opts.UpdateLinks is set. Likes and dislikes are only touched when listed.
func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && !opts.UpdateLinks {
		return nil
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book.UpdatedAt = time.Now().UTC()
		columns := models.WithSearchName(append(append([]string{}, opts.Columns...), "updated_at"))

		res, err := tx.
			NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return errcodes.NotFound("Book")
		}

		if opts.UpdateLinks {
			return replaceLinks(ctx, tx, book.ID, opts.GenreIDs, opts.AuthorIDs)
		}
		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return svc.loadRelations(ctx, book)
}

// DeleteBook removes the book along with its genre, author and favorite links.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, join := range []interface{}{
			(*models.BookGenre)(nil),
			(*models.BookAuthor)(nil),
			(*models.BookFavorite)(nil),
		} {
			_, err := tx.NewDelete().
				Model(join).
				Where("book_id = ?", bookID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		res, err := tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return errcodes.NotFound("Book")
		}
		return nil
	})
}

// RecommendedBooks picks up to RecommendationLimit other books for book, first
// those sharing a genre, then those sharing an author, then any, each tier by
// id. book must have its Genres and Authors loaded.
func (svc *Service) RecommendedBooks(ctx context.Context, book *models.Book) ([]*models.Book, error) {
	tiers := []struct {
		name     string
		ids      []int
		subquery string
	}{
		{metrics.TierGenre, book.GenreIDs(), "SELECT rg.book_id FROM book_genres AS rg WHERE rg.genre_id IN (?)"},
		{metrics.TierAuthor, book.AuthorIDs(), "SELECT ra.book_id FROM book_authors AS ra WHERE ra.author_id IN (?)"},
		{metrics.TierAny, nil, ""},
	}

	selected := []*models.Book{}
	exclude := []int{book.ID}

	for _, tier := range tiers {
		remaining := RecommendationLimit - len(selected)
		if remaining <= 0 {
			break
		}
		if tier.subquery != "" && len(tier.ids) == 0 {
			continue
		}

		found := []*models.Book{}
		q := svc.db.
			NewSelect().
			Model(&found).
			Relation("Genres", orderByID("g")).
			Relation("Authors", orderByID("a")).
			Where("b.id NOT IN (?)", bun.In(exclude)).
			Order("b.id ASC").
			Limit(remaining)
		if tier.subquery != "" {
			q = q.Where("b.id IN ("+tier.subquery+")", bun.In(tier.ids))
		}
		if err := q.Scan(ctx); err != nil {
			return nil, errors.WithStack(err)
		}

		metrics.RecordRecommendations(tier.name, len(found))
		selected = append(selected, found...)
		exclude = append(exclude, lo.Map(found, func(b *models.Book, _ int) int { return b.ID })...)
	}

	return selected, nil
}

// LatestBooks returns the most recently cataloged books, newest first.
func (svc *Service) LatestBooks(ctx context.Context, limit int) ([]*models.Book, error) {
	books := []*models.Book{}
	err := svc.db.
		NewSelect().
		Model(&books).
		Order("b.catalog_entry_date DESC", "b.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

// Favorite marks the book as a favorite of the user. Favoriting twice is a
// no-op.
func (svc *Service) Favorite(ctx context.Context, bookID, userID int) error {
	if _, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &bookID}); err != nil {
		return err
	}
	_, err := svc.db.
		NewInsert().
		Model(&models.BookFavorite{BookID: bookID, UserID: userID, CreatedAt: time.Now().UTC()}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

// Unfavorite removes the book from the user's favorites, if it was there.
func (svc *Service) Unfavorite(ctx context.Context, bookID, userID int) error {
	if _, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &bookID}); err != nil {
		return err
	}
	_, err := svc.db.
		NewDelete().
		Model((*models.BookFavorite)(nil)).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Exec(ctx)
	return errors.WithStack(err)
}

// FavoritesForUser returns every book the user favorited, by id.
func (svc *Service) FavoritesForUser(ctx context.Context, userID int) ([]*models.Book, error) {
	return svc.ListBooks(ctx, ListBooksOptions{FavoritedBy: &userID})
}

func (svc *Service) loadRelations(ctx context.Context, book *models.Book) error {
	loaded, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return err
	}
	book.Genres = loaded.Genres
	book.Authors = loaded.Authors
	book.FavoritedBy = loaded.FavoritedBy
	return nil
}

// replaceLinks makes the book's genre and author links exactly the existing
// rows among genreIDs and authorIDs. Unknown ids are dropped.
func replaceLinks(ctx context.Context, tx bun.Tx, bookID int, genreIDs, authorIDs []int) error {
	_, err := tx.NewDelete().
		Model((*models.BookGenre)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = tx.NewDelete().
		Model((*models.BookAuthor)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	genreIDs, err = existingIDs(ctx, tx, (*models.Genre)(nil), genreIDs)
	if err != nil {
		return err
	}
	if len(genreIDs) > 0 {
		links := lo.Map(genreIDs, func(id int, _ int) *models.BookGenre {
			return &models.BookGenre{BookID: bookID, GenreID: id}
		})
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
	}

	authorIDs, err = existingIDs(ctx, tx, (*models.Author)(nil), authorIDs)
	if err != nil {
		return err
	}
	if len(authorIDs) > 0 {
		links := lo.Map(authorIDs, func(id int, _ int) *models.BookAuthor {
			return &models.BookAuthor{BookID: bookID, AuthorID: id}
		})
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func existingIDs(ctx context.Context, tx bun.Tx, model interface{}, ids []int) ([]int, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	found := []int{}
	err := tx.NewSelect().
		Model(model).
		Column("id").
		Where("id IN (?)", bun.In(ids)).
		Order("id ASC").
		Scan(ctx, &found)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return found, nil
}

func orderByID(alias string) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Order(alias + ".id ASC")
	}
}
