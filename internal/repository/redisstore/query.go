package redisstore

import (
	"context"
	"sort"

	"github.com/nekoinbox/backend/internal/models"
)

// List answers one page of the feed.
//
// Recency order with no search term is the fast path: the id lists are
// already newest-first, so the page is a slice of ids and only that
// page's bodies get loaded. A search term, or sorting by likes or
// reply count, needs live field values across every candidate, so
// those queries load everything, filter and sort in memory, and slice
// the result.
func (s *MessageStore) List(ctx context.Context, params models.ListParams) (*models.MessageList, error) {
	indexKey := globalIndexKey
	if params.FilterByTag != "" && params.FilterByTag != models.FilterAll {
		indexKey = tagIndexKey(models.Tag(params.FilterByTag))
	}
	ids, err := s.readIndex(ctx, indexKey)
	if err != nil {
		return nil, err
	}

	if params.SearchTerm == "" && params.SortBy == models.SortByDate {
		return s.listFast(ctx, ids, params)
	}
	return s.listSlow(ctx, ids, params)
}

func (s *MessageStore) listFast(ctx context.Context, ids []string, params models.ListParams) (*models.MessageList, error) {
	total := len(ids)
	pageIDs := paginateIDs(ids, params.Page, params.Limit)

	messages := make([]models.Message, 0, len(pageIDs))
	for _, id := range pageIDs {
		msg, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			// Stale index entry for a deleted message; skip it.
			continue
		}
		messages = append(messages, *msg)
	}

	return &models.MessageList{
		Messages:      messages,
		TotalMessages: total,
		TotalPages:    models.TotalPages(total, params.Limit),
		CurrentPage:   params.Page,
	}, nil
}

func (s *MessageStore) listSlow(ctx context.Context, ids []string, params models.ListParams) (*models.MessageList, error) {
	all := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			continue
		}
		if !msg.Matches(params.SearchTerm) {
			continue
		}
		all = append(all, *msg)
	}

	sortMessages(all, params.SortBy)

	total := len(all)
	start := (params.Page - 1) * params.Limit
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	return &models.MessageList{
		Messages:      all[start:end],
		TotalMessages: total,
		TotalPages:    models.TotalPages(total, params.Limit),
		CurrentPage:   params.Page,
	}, nil
}

// sortMessages orders a slice already in newest-first index order.
// The sort is stable, so whatever the comparator leaves tied keeps
// that recency order.
func sortMessages(messages []models.Message, sortBy models.SortOrder) {
	switch sortBy {
	case models.SortByDate:
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[j].Timestamp.Before(messages[i].Timestamp)
		})
	case models.SortByReplies:
		sort.SliceStable(messages, func(i, j int) bool {
			return len(messages[i].Replies) > len(messages[j].Replies)
		})
	default: // likes, ties broken by most recent first
		sort.SliceStable(messages, func(i, j int) bool {
			if messages[i].Likes != messages[j].Likes {
				return messages[i].Likes > messages[j].Likes
			}
			return messages[j].Timestamp.Before(messages[i].Timestamp)
		})
	}
}

func paginateIDs(ids []string, page, limit int) []string {
	start := (page - 1) * limit
	if start > len(ids) {
		start = len(ids)
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}
