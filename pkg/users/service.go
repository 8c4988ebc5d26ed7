package users

import (
	"context"
	"database/sql"

	"github.com/libracat/libracat/pkg/auth"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Service handles user operations.
type Service struct {
	db          *bun.DB
	authService *auth.Service
}

// NewService creates a new users service. Passwords are hashed by authService
// so that hashing and checking always agree.
func NewService(db *bun.DB, authService *auth.Service) *Service {
	return &Service{db: db, authService: authService}
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	Login    string
	Password string
}

// Create creates a new user.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	// Check if login already exists
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("login = ? COLLATE NOCASE", opts.Login).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Login already exists")
	}

	hashedPassword, err := s.authService.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Login:        opts.Login,
		PasswordHash: hashedPassword,
	}

	_, err = s.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve retrieves a user by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Favorites", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("b.id ASC")
		}).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// Delete removes a user together with their favorites.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.BookFavorite)(nil)).
			Where("user_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.User)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("User")
		}
		return nil
	})
}
