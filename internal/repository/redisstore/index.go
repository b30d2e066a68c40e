package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nekoinbox/backend/internal/models"
)

// Key layout:
//
//	msg:<id>          message JSON
//	message_ids       JSON array of every id, newest first
//	index_tag_<tag>   JSON array of ids carrying that tag, newest first
//
// The id lists are the precomputed orderings: recency-sorted listings,
// optionally filtered by tag, are answered from them without loading a
// single message body. They know nothing about likes or reply counts,
// which is exactly why those sorts take the slow path.
const (
	messageKeyPrefix  = "msg:"
	globalIndexKey    = "message_ids"
	tagIndexKeyPrefix = "index_tag_"
)

func messageKey(id string) string {
	return messageKeyPrefix + id
}

func tagIndexKey(tag models.Tag) string {
	return tagIndexKeyPrefix + string(tag)
}

// readIndex returns the id list at key, empty when the key is absent.
func (s *MessageStore) readIndex(ctx context.Context, key string) ([]string, error) {
	ids := make([]string, 0)
	if _, err := getJSON(ctx, s.kv, key, &ids); err != nil {
		return nil, fmt.Errorf("read index %s: %w", key, err)
	}
	return ids, nil
}

// prependToIndex puts id at the head of the list at key, creating the
// list if needed. Newest-first order is the lists' only invariant, and
// prepending at create/relocate time is what maintains it.
func (s *MessageStore) prependToIndex(ctx context.Context, key, id string) error {
	err := s.kv.Update(ctx, key, func(raw []byte, found bool) ([]byte, error) {
		ids := []string{}
		if found {
			if err := json.Unmarshal(raw, &ids); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
		ids = append([]string{id}, ids...)
		return json.Marshal(ids)
	})
	if err != nil {
		return fmt.Errorf("prepend to index %s: %w", key, err)
	}
	return nil
}

// removeFromIndex filters id out of the list at key. Reports whether
// the id was actually there; callers treat absence as a logged
// anomaly, not a failure, so a half-applied earlier write can always
// be cleaned up by retrying the operation.
func (s *MessageStore) removeFromIndex(ctx context.Context, key, id string) (bool, error) {
	removed := false
	err := s.kv.Update(ctx, key, func(raw []byte, found bool) ([]byte, error) {
		removed = false // fn can re-run if the transaction retries
		if !found {
			return nil, nil
		}
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		kept := ids[:0]
		for _, existing := range ids {
			if existing == id {
				removed = true
				continue
			}
			kept = append(kept, existing)
		}
		if !removed {
			return nil, nil
		}
		return json.Marshal(kept)
	})
	if err != nil {
		return false, fmt.Errorf("remove from index %s: %w", key, err)
	}
	return removed, nil
}
