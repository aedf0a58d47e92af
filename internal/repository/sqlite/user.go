package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/game-store/internal/apperror"
	"github.com/sakif/game-store/internal/model"
	"github.com/sakif/game-store/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user, assigning an xid and timestamps.
//
// DUPLICATE EMAILS:
// We do NOT pre-check with a SELECT — two concurrent registrations would
// both pass the check and one insert would still fail. Instead we let the
// UNIQUE constraint on email decide and translate the violation into a
// Conflict error. The database is the single arbiter.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, last_post, avatar_url, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.LastPost,
		user.AvatarURL,
		nullableGitHubID(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetUserByEmail retrieves a user by email (case-sensitive, as stored).
// Returns apperror.ErrNotFound if no user exists with that email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, last_post, avatar_url, github_id, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.LastPost,
		&u.AvatarURL,
		&githubID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	u.GitHubID = githubID.Int64

	return &u, nil
}

// UpsertGitHubUser inserts or updates a user keyed by their GitHub ID.
//
// First sign-in → INSERT with a fresh xid; returning visits → UPDATE the
// profile fields in case they changed on GitHub, keeping the existing
// internal ID so issued tokens stay valid across profile refreshes.
//
// The whole upsert is ONE statement. A SELECT-then-INSERT would leave a
// window where two concurrent first sign-ins both miss the lookup and one
// INSERT loses to the unique index; ON CONFLICT turns the loser into the
// UPDATE instead. RETURNING hands back the canonical row either way.
// The conflict target names the partial index's WHERE clause — SQLite
// requires an exact match to resolve against a partial unique index.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("sqlite: upserting user: GitHub ID is required")
	}

	now := time.Now()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, last_post, avatar_url, github_id, created_at, updated_at)
		 VALUES (?, ?, '', ?, '', ?, ?, ?, ?)
		 ON CONFLICT(github_id) WHERE github_id IS NOT NULL DO UPDATE SET
			email      = excluded.email,
			name       = excluded.name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
		 RETURNING id, created_at`,
		xid.New().String(),
		user.Email,
		user.Name,
		user.AvatarURL,
		user.GitHubID,
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// The email is taken by a different (password) account.
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: upserting GitHub user %d: %w", user.GitHubID, err)
	}

	user.UpdatedAt = now

	return nil
}

// nullableGitHubID maps the zero value to NULL so the partial unique index
// on github_id only applies to real GitHub accounts.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
