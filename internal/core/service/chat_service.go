package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/createsphere/marketplace/internal/core/domain"
	"github.com/createsphere/marketplace/internal/core/ports"
)

// ChatService gates conversations: at least one participant must be a creator.
type ChatService struct {
	directory ports.UserDirectory
	log       zerolog.Logger
}

func NewChatService(directory ports.UserDirectory, log zerolog.Logger) *ChatService {
	return &ChatService{directory: directory, log: log}
}

// ChatAllowed reports whether userA and userB may chat. Directory failures
// are returned wrapped in domain.ErrEligibilityUndetermined and never
// collapsed into a boolean.
func (s *ChatService) ChatAllowed(ctx context.Context, userA, userB string) (bool, error) {
	ids := participantSet(userA, userB)
	if len(ids) == 0 {
		return false, nil
	}

	roles, err := s.directory.RolesByIDs(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("chat allowed: %w: %w", domain.ErrEligibilityUndetermined, err)
	}

	allowed := domain.AnyCreator(roles)
	s.log.Debug().
		Str("user_a", userA).
		Str("user_b", userB).
		Int("matched", len(roles)).
		Bool("allowed", allowed).
		Msg("chat eligibility evaluated")

	return allowed, nil
}

// participantSet deduplicates the pair; the same user chatting with
// themselves is a single lookup.
func participantSet(userA, userB string) []string {
	ids := make([]string, 0, 2)
	if userA != "" {
		ids = append(ids, userA)
	}
	if userB != "" && userB != userA {
		ids = append(ids, userB)
	}
	return ids
}
