// Package session defines per-user quiz state persistence. One state is
// kept per opaque token; tokens are isolated from each other and the
// surrounding HTTP layer serializes access per user.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/quizdesk/quizdesk/internal/model"
)

// Store abstracts how session state is kept between requests.
type Store interface {
	// Get returns the state for a token, or nil when none exists.
	Get(ctx context.Context, token string) (*model.SessionState, error)
	// Put stores the state for a token, replacing any previous value.
	Put(ctx context.Context, token string, state *model.SessionState) error
	// Delete removes the state for a token.
	Delete(ctx context.Context, token string) error
}

// NewToken returns a fresh random session token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
