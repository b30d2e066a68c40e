package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tag is the moderation state of a message. Exactly one tag index
// references a message at any time, so the set of values is closed:
// an unknown tag would create an index key nothing ever reads.
type Tag string

const (
	TagUnprocessed        Tag = "unprocessed"
	TagInProgress         Tag = "in-progress"
	TagCompleted          Tag = "completed"
	TagAccepted           Tag = "accepted"
	TagUnderConsideration Tag = "under-consideration"
	TagRejected           Tag = "rejected"
)

// Tags lists every valid tag. The order here is what the frontend
// renders in the filter dropdown.
var Tags = []Tag{
	TagUnprocessed,
	TagInProgress,
	TagCompleted,
	TagAccepted,
	TagUnderConsideration,
	TagRejected,
}

// ValidTag reports whether t is part of the fixed enumeration.
func ValidTag(t Tag) bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

// VoteType selects which counter a vote increments.
type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
)

func ValidVoteType(v VoteType) bool {
	return v == VoteLike || v == VoteDislike
}

// Reply is an admin answer attached to a message. Replies are
// append-only and ordered by creation; they never outlive the message.
type Reply struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// Message is the one entity this service manages.
//
// ID embeds the creation time in milliseconds plus a random suffix,
// so lexicographic-by-creation ordering of ids matches chronological
// ordering without consulting the timestamp.
//
// Likes, Dislikes and Reports only ever increase. Tag is the only
// mutable scalar field.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserName  string    `json:"user_name"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Reports   int       `json:"reports"`
	Tag       Tag       `json:"tag"`
	Replies   []Reply   `json:"replies"`
}

// Submission is the payload the bot integration posts. All four
// fields are required; the server stamps everything else.
type Submission struct {
	Type     string `json:"type" binding:"required"`
	UserName string `json:"user_name" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// SortOrder selects the comparator for message listings.
type SortOrder string

const (
	SortByLikes   SortOrder = "likes"
	SortByDate    SortOrder = "date"
	SortByReplies SortOrder = "replies"
)

// FilterAll is the tag filter value meaning "no tag filter".
const FilterAll = "all"

// ListParams carries a normalized listing request: Page and Limit are
// at least 1, SortBy is one of the SortOrder values, FilterByTag is a
// tag or FilterAll, SearchTerm is already lower-cased and trimmed
// (empty = no search).
type ListParams struct {
	Page        int
	Limit       int
	SortBy      SortOrder
	FilterByTag string
	SearchTerm  string
}

// MessageList is one page of results plus the pagination envelope
// the frontend paginator needs.
type MessageList struct {
	Messages      []Message `json:"messages"`
	TotalMessages int       `json:"totalMessages"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
}

// TotalPages returns ceil(total/limit) for a page envelope.
func TotalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// NewMessageID mints a message identifier: "msg-<unix-milli>-<suffix>".
// The millisecond prefix keeps ids time-sortable; the uuid-derived
// suffix breaks same-millisecond collisions.
func NewMessageID(now time.Time) string {
	return newID("msg", now)
}

// NewReplyID mints a reply identifier with the same shape.
func NewReplyID(now time.Time) string {
	return newID("reply", now)
}

func newID(kind string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", kind, now.UnixMilli(), suffix)
}

// Matches reports whether the message matches a lower-cased search
// term by case-insensitive substring over id, user name and content.
func (m *Message) Matches(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.ID), term) ||
		strings.Contains(strings.ToLower(m.UserName), term) ||
		strings.Contains(strings.ToLower(m.Content), term)
}
