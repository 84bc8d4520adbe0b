package ports

import "context"

// ChatService decides whether two users may open a conversation.
type ChatService interface {
	ChatAllowed(ctx context.Context, userA, userB string) (bool, error)
}
