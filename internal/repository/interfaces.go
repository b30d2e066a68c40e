package repository

import (
	"context"
	"errors"

	"github.com/nekoinbox/backend/internal/models"
)

// ErrNotFound is returned by mutations that reference a message id
// with no canonical record behind it.
var ErrNotFound = errors.New("message not found")

// MessageRepository is the storage contract for the feedback board.
// Two implementations exist with identical external behavior:
//
//   - postgres: messages and replies are rows; filtering, sorting and
//     pagination are pushed into SQL, so every listing is derived from
//     the same transactional state as the records themselves.
//   - redisstore: messages are JSON values under msg:<id> with
//     hand-maintained id lists (global recency order plus one list per
//     tag) answering the common listing shapes without loading bodies.
//
// Counter increments must be atomic per message: two concurrent votes
// on the same id sum to two, never one. How that is achieved is the
// implementation's business (SQL increment vs per-key transaction).
type MessageRepository interface {
	// Create stamps id/timestamp/zero counters/default tag onto the
	// submission and persists it.
	Create(ctx context.Context, sub models.Submission) (*models.Message, error)

	// Get returns a message with its replies, or nil, nil when absent.
	Get(ctx context.Context, id string) (*models.Message, error)

	// List answers one page of the feed. Pages past the end return an
	// empty Messages slice with correct totals.
	List(ctx context.Context, params models.ListParams) (*models.MessageList, error)

	// Vote atomically increments the like or dislike counter and
	// returns the updated message. ErrNotFound when absent.
	Vote(ctx context.Context, id string, vote models.VoteType) (*models.Message, error)

	// Report atomically increments the report counter and returns the
	// updated message. ErrNotFound when absent.
	Report(ctx context.Context, id string) (*models.Message, error)

	// AddReply appends a server-stamped reply. ErrNotFound when absent.
	AddReply(ctx context.Context, id, content string) (*models.Reply, error)

	// SetTag moves the message to a new tag. Setting the current tag
	// is a success no-op with no index mutation. ErrNotFound when absent.
	SetTag(ctx context.Context, id string, tag models.Tag) (*models.Message, error)

	// Delete removes the message, its replies, and every index entry
	// referencing it. ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}
