// Package userrepo stores ledger users in PostgreSQL.
package userrepo

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const userColumns = `username, hashed_password, full_name, email, password_changed_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User

	err := row.Scan(&u.Username, &u.HashedPassword, &u.FullName, &u.Email, &u.PasswordChangedAt, &u.CreatedAt)

	return u, err
}

// uniqueErrors maps unique constraints of the users table to the conflict they signal.
var uniqueErrors = map[string]error{
	"users_pkey":      domain.ErrUsernameAlreadyExists,
	"users_email_key": domain.ErrEmailAlreadyExists,
}

const createQuery = `
INSERT INTO users (username, hashed_password, full_name, email)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

// Create inserts the user. Taken usernames and emails are reported as conflicts.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, createQuery,
		arg.Username,
		arg.HashedPassword,
		arg.FullName,
		arg.Email,
	))
	if err != nil {
		if conflict, ok := uniqueErrors[dbpkg.ConstraintName(err)]; ok {
			zerolog.Ctx(ctx).Info().Err(err).Str("username", arg.Username).Send()
			return u, conflict
		}

		zerolog.Ctx(ctx).Error().Err(err).Str("username", arg.Username).Send()

		return u, errorspkg.ErrInternal
	}

	return u, nil
}

const getQuery = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

// Get returns the user with the given username.
func (r *RepoPGS) Get(ctx context.Context, username string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getQuery, username))

	switch {
	case err == sql.ErrNoRows:
		zerolog.Ctx(ctx).Info().Str("username", username).Msg("user not found")
		return u, domain.ErrUserNotFound
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return u, errorspkg.ErrInternal
	}

	return u, nil
}
