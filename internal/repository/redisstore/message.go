package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nekoinbox/backend/internal/models"
	"github.com/nekoinbox/backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MessageStore is the flat key-value implementation. The canonical
// record and its index entries live under separate keys, so a write
// is a short sequence of per-key atomic updates rather than one
// transaction; a crash mid-sequence can leave an index stale until the
// next write to the same message. That window is the accepted cost of
// this strategy (the relational store does not have it).
type MessageStore struct {
	kv     kvStore
	logger *zap.Logger
}

func NewMessageStore(client *redis.Client, logger *zap.Logger) *MessageStore {
	return &MessageStore{kv: newRedisKV(client), logger: logger}
}

// newStoreWithKV lets tests run the full store over an in-memory kv.
func newStoreWithKV(kv kvStore, logger *zap.Logger) *MessageStore {
	return &MessageStore{kv: kv, logger: logger}
}

func (s *MessageStore) Create(ctx context.Context, sub models.Submission) (*models.Message, error) {
	now := time.Now().UTC()
	msg := &models.Message{
		ID:        models.NewMessageID(now),
		Type:      sub.Type,
		UserName:  sub.UserName,
		UserID:    sub.UserID,
		Content:   sub.Content,
		Timestamp: now,
		Tag:       models.TagUnprocessed,
		Replies:   []models.Reply{},
	}

	// Body first, then the two index prepends. Readers that race the
	// index writes simply don't see the message for a moment longer.
	if err := setJSON(ctx, s.kv, messageKey(msg.ID), msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	if err := s.prependToIndex(ctx, globalIndexKey, msg.ID); err != nil {
		return nil, err
	}
	if err := s.prependToIndex(ctx, tagIndexKey(msg.Tag), msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageStore) Get(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	found, err := getJSON(ctx, s.kv, messageKey(id), &msg)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &msg, nil
}

func (s *MessageStore) Vote(ctx context.Context, id string, vote models.VoteType) (*models.Message, error) {
	return s.updateMessage(ctx, id, func(msg *models.Message) error {
		switch vote {
		case models.VoteLike:
			msg.Likes++
		case models.VoteDislike:
			msg.Dislikes++
		default:
			return fmt.Errorf("invalid vote type %q", vote)
		}
		return nil
	})
}

func (s *MessageStore) Report(ctx context.Context, id string) (*models.Message, error) {
	return s.updateMessage(ctx, id, func(msg *models.Message) error {
		msg.Reports++
		return nil
	})
}

func (s *MessageStore) AddReply(ctx context.Context, id, content string) (*models.Reply, error) {
	now := time.Now().UTC()
	reply := models.Reply{
		ID:        models.NewReplyID(now),
		Timestamp: now,
		Content:   content,
	}
	_, err := s.updateMessage(ctx, id, func(msg *models.Message) error {
		msg.Replies = append(msg.Replies, reply)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *MessageStore) SetTag(ctx context.Context, id string, tag models.Tag) (*models.Message, error) {
	var oldTag models.Tag
	changed := false

	updated, err := s.updateMessage(ctx, id, func(msg *models.Message) error {
		oldTag = msg.Tag
		changed = msg.Tag != tag
		msg.Tag = tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		// Same tag: no index to touch.
		return updated, nil
	}

	// Relocate between tag indexes: out of the old list, onto the
	// head of the new one. The global index is unaffected.
	if oldTag != "" {
		removed, err := s.removeFromIndex(ctx, tagIndexKey(oldTag), id)
		if err != nil {
			return nil, err
		}
		if !removed {
			s.logger.Warn("message missing from its tag index",
				zap.String("id", id),
				zap.String("tag", string(oldTag)),
			)
		}
	}
	if err := s.prependToIndex(ctx, tagIndexKey(tag), id); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if msg == nil {
		return repository.ErrNotFound
	}

	// Indexes first, record last: a reader hitting the gap sees a
	// shorter list, never a dangling id that resolves to nothing.
	removed, err := s.removeFromIndex(ctx, globalIndexKey, id)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Warn("deleted message missing from global index", zap.String("id", id))
	}

	if msg.Tag != "" {
		removed, err := s.removeFromIndex(ctx, tagIndexKey(msg.Tag), id)
		if err != nil {
			return err
		}
		if !removed {
			s.logger.Warn("deleted message missing from its tag index",
				zap.String("id", id),
				zap.String("tag", string(msg.Tag)),
			)
		}
	}

	// Replies live inside the message value, so this removes them too.
	if err := s.kv.Delete(ctx, messageKey(id)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// updateMessage applies mutate to the message under a single-key
// atomic update and returns the new state. ErrNotFound when the
// record is absent; the key is left untouched on any error.
func (s *MessageStore) updateMessage(ctx context.Context, id string, mutate func(*models.Message) error) (*models.Message, error) {
	var updated models.Message
	err := s.kv.Update(ctx, messageKey(id), func(raw []byte, found bool) ([]byte, error) {
		if !found {
			return nil, repository.ErrNotFound
		}
		var msg models.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", id, err)
		}
		if err := mutate(&msg); err != nil {
			return nil, err
		}
		updated = msg
		return json.Marshal(msg)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
