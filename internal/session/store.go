package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a token is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Store maps opaque session tokens to user ids. The token is the only thing
// the browser ever holds; everything else stays server-side.
type Store interface {
	// Create issues a new token bound to the user id.
	Create(ctx context.Context, userID uint) (string, error)

	// Get resolves a token to the user id it was issued for.
	Get(ctx context.Context, token string) (uint, error)

	// Delete invalidates a token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
