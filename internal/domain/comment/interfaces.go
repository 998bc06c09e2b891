package comment

import "context"

// Repository provides persistence for comments, replies, and reactions.
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	ListBySession(ctx context.Context, sessionID string) ([]Comment, error)
	Resolve(ctx context.Context, id string) error
	AddReply(ctx context.Context, reply *Reply) error
	AddReaction(ctx context.Context, commentID, emoji, userID string) error
}
