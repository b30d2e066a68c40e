package postgres

import (
	"testing"

	"github.com/nekoinbox/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildListQueriesNoFilters(t *testing.T) {
	count, page, countArgs, pageArgs := buildListQueries(models.ListParams{
		Page: 1, Limit: 10, SortBy: models.SortByLikes, FilterByTag: models.FilterAll,
	})

	assert.Equal(t, "SELECT COUNT(*) FROM messages m", count)
	assert.Empty(t, countArgs)
	assert.NotContains(t, page, "ILIKE")
	assert.NotContains(t, page, "m.tag =")
	assert.Contains(t, page, "ORDER BY m.likes DESC, m.timestamp DESC, m.id DESC")
	assert.Contains(t, page, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{10, 0}, pageArgs)
}

func TestBuildListQueriesSearchAndTag(t *testing.T) {
	count, page, countArgs, pageArgs := buildListQueries(models.ListParams{
		Page: 3, Limit: 20, SortBy: models.SortByDate,
		FilterByTag: string(models.TagAccepted), SearchTerm: "hello",
	})

	assert.Contains(t, count, "WHERE (m.content ILIKE $1 OR m.user_name ILIKE $1) AND m.tag = $2")
	assert.Equal(t, []any{"%hello%", string(models.TagAccepted)}, countArgs)

	assert.Contains(t, page, "WHERE (m.content ILIKE $1 OR m.user_name ILIKE $1) AND m.tag = $2")
	assert.Contains(t, page, "ORDER BY m.timestamp DESC, m.id DESC")
	assert.Contains(t, page, "LIMIT $3 OFFSET $4")
	assert.Equal(t, []any{"%hello%", string(models.TagAccepted), 20, 40}, pageArgs)
}

func TestBuildListQueriesReplySort(t *testing.T) {
	_, page, _, _ := buildListQueries(models.ListParams{
		Page: 1, Limit: 10, SortBy: models.SortByReplies, FilterByTag: models.FilterAll,
	})

	// Reply count is derived per row, never a stored column.
	assert.Contains(t, page, "(SELECT COUNT(*) FROM replies r WHERE r.message_id = m.id) AS reply_count")
	assert.Contains(t, page, "ORDER BY reply_count DESC, m.id DESC")
}

func TestBuildListQueriesOffsetFromPage(t *testing.T) {
	_, _, _, pageArgs := buildListQueries(models.ListParams{
		Page: 5, Limit: 7, SortBy: models.SortByLikes, FilterByTag: models.FilterAll,
	})
	assert.Equal(t, []any{7, 28}, pageArgs)
}
