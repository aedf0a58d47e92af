// Package repository defines the storage interfaces the service layer
// programs against. The concrete implementation lives in repository/sqlite;
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/game-store/internal/model"
)

// UserRepository is the credential store.
//
// CreateUser must treat the email UNIQUE constraint as the authoritative
// duplicate signal — check-then-insert is not race-free, so a constraint
// violation surfaces as apperror.ErrConflict rather than a generic failure.
type UserRepository interface {
	// CreateUser inserts a new user, assigning ID and timestamps.
	// Returns apperror.ErrConflict if the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByEmail returns the user with the given email.
	// Returns apperror.ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID returns the user with the given internal ID.
	// Returns apperror.ErrNotFound if no such user exists.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// UpsertGitHubUser inserts or updates a user keyed by GitHub ID,
	// populating user.ID with the canonical internal ID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// ProductRepository is the catalog store.
type ProductRepository interface {
	// CreateProduct inserts the product and its platform association in a single
	// transaction. On any failure both writes roll back — a reader can
	// never observe the product without its platform link surviving a
	// failed create.
	CreateProduct(ctx context.Context, product *model.Product, platformID int64, used bool) error

	// GetProductByID returns the product plus all of its platform associations,
	// ordered by platform ID. Returns apperror.ErrNotFound for unknown ids.
	GetProductByID(ctx context.Context, id int64) (*model.ProductDetail, error)

	// ListProducts returns every product in the catalog. No pagination.
	ListProducts(ctx context.Context) ([]model.Product, error)
}
