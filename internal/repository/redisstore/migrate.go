package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nekoinbox/backend/internal/models"
	"go.uber.org/zap"
)

// Early deployments kept every message in a single JSON array under
// one key. Migrate splits that blob into per-message keys and builds
// the id lists, then renames the blob out of the way. The legacy key's
// absence is the completion marker, so the migration is idempotent
// across restarts and across instances without any in-process flag.
//
// Runs once at startup, before the server accepts requests.
const (
	legacyMessagesKey = "messages"
	legacyBackupKey   = "messages_migrated_bak"
)

func (s *MessageStore) Migrate(ctx context.Context) error {
	raw, found, err := s.kv.Get(ctx, legacyMessagesKey)
	if err != nil {
		return fmt.Errorf("read legacy messages: %w", err)
	}
	if !found {
		return nil
	}

	var legacy []models.Message
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return fmt.Errorf("decode legacy messages: %w", err)
	}

	s.logger.Info("migrating legacy message blob", zap.Int("count", len(legacy)))

	// Old records can predate ids and tags entirely.
	for i := range legacy {
		if legacy[i].ID == "" {
			legacy[i].ID = models.NewMessageID(legacy[i].Timestamp)
		}
		if !models.ValidTag(legacy[i].Tag) {
			legacy[i].Tag = models.TagUnprocessed
		}
		if legacy[i].Replies == nil {
			legacy[i].Replies = []models.Reply{}
		}
	}

	// Ids embed creation time, so descending id order is the
	// newest-first order every index list must hold.
	sort.Slice(legacy, func(i, j int) bool { return legacy[i].ID > legacy[j].ID })

	globalIDs := make([]string, 0, len(legacy))
	tagIDs := make(map[models.Tag][]string)
	for i := range legacy {
		msg := &legacy[i]
		if err := setJSON(ctx, s.kv, messageKey(msg.ID), msg); err != nil {
			return fmt.Errorf("migrate message %s: %w", msg.ID, err)
		}
		globalIDs = append(globalIDs, msg.ID)
		tagIDs[msg.Tag] = append(tagIDs[msg.Tag], msg.ID)
	}

	if err := setJSON(ctx, s.kv, globalIndexKey, globalIDs); err != nil {
		return fmt.Errorf("write global index: %w", err)
	}
	for tag, ids := range tagIDs {
		if err := setJSON(ctx, s.kv, tagIndexKey(tag), ids); err != nil {
			return fmt.Errorf("write tag index %s: %w", tag, err)
		}
		s.logger.Info("built tag index", zap.String("tag", string(tag)), zap.Int("count", len(ids)))
	}

	// Keep the blob around under another name, then retire the legacy
	// key; that retirement is what marks the migration complete.
	if err := s.kv.Set(ctx, legacyBackupKey, raw); err != nil {
		return fmt.Errorf("back up legacy messages: %w", err)
	}
	if err := s.kv.Delete(ctx, legacyMessagesKey); err != nil {
		return fmt.Errorf("remove legacy messages: %w", err)
	}

	s.logger.Info("legacy migration complete", zap.Int("migrated", len(globalIDs)))
	return nil
}
