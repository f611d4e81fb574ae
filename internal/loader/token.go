package loader

import (
	"context"
	"errors"

	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/rs/zerolog/log"
)

// TokenStore returns the GitHub token linked to a user
type TokenStore interface {
	GithubToken(ctx context.Context, username string) (string, error)
}

// TokenSource resolves the token used to read repositories for an actor.
// Actors without a linked account fall back to the service token.
type TokenSource struct {
	users    TokenStore
	fallback string
}

func NewTokenSource(users TokenStore, fallback string) *TokenSource {
	return &TokenSource{users: users, fallback: fallback}
}

func (s *TokenSource) Token(ctx context.Context, actor string) string {
	if s.users == nil || actor == "" {
		return s.fallback
	}

	token, err := s.users.GithubToken(ctx, actor)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Str("actor", actor).Msg("Failed to read user token, using service token")
		}
		return s.fallback
	}
	return token
}
