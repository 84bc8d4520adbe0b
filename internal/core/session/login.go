package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/createsphere/marketplace/internal/core/domain"
	"github.com/createsphere/marketplace/internal/core/ports"
)

// Login authenticates a regular account and commits token and profile.
func Login(ctx context.Context, sess *Session, auth ports.Authenticator, email, password string) (*domain.User, error) {
	token, user, err := auth.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := sess.SetAuthToken(token); err != nil {
		return nil, fmt.Errorf("login: persist token: %w", err)
	}
	if err := sess.SetUser(user); err != nil {
		return nil, fmt.Errorf("login: persist role: %w", err)
	}
	return user, nil
}

// AdminLogin authenticates an admin account into the admin slot. No user
// profile is kept for admin sessions.
func AdminLogin(ctx context.Context, sess *Session, auth ports.Authenticator, email, password string) error {
	token, _, err := auth.AdminLogin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("admin login: %w", err)
	}
	if err := sess.SetAdminToken(token); err != nil {
		return fmt.Errorf("admin login: persist token: %w", err)
	}
	return nil
}

// Logout revokes the live tokens server side when possible and always
// clears the local session.
func Logout(ctx context.Context, sess *Session, auth ports.Authenticator, log zerolog.Logger) error {
	for _, token := range liveTokens(sess) {
		if err := auth.Logout(ctx, token); err != nil {
			log.Warn().Err(err).Msg("server-side logout failed")
		}
	}
	return sess.Clear()
}

// liveTokens lists every credential held in memory or in storage, without
// duplicates. When an admin token wins restoration the regular token stays
// in storage only, and Clear is about to delete it.
func liveTokens(sess *Session) []string {
	snap := sess.Snapshot()
	candidates := []string{snap.AuthToken, snap.AdminToken}
	if sess.store != nil {
		for _, key := range []string{KeyAuthToken, KeyAdminToken} {
			if v, ok, err := sess.store.Get(key); err == nil && ok {
				candidates = append(candidates, v)
			}
		}
	}

	tokens := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, t := range candidates {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	return tokens
}
