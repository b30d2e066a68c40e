package postgres

import (
	"fmt"
	"strings"

	"github.com/nekoinbox/backend/internal/models"
)

// buildListQueries assembles the count query and the page query for a
// listing request. Filtering, sorting and pagination all happen in
// SQL; the reply count is a correlated subquery, never a stored
// column, so it cannot drift from the replies table.
func buildListQueries(params models.ListParams) (countQuery, pageQuery string, countArgs, pageArgs []any) {
	var conditions []string
	var args []any

	if params.SearchTerm != "" {
		args = append(args, "%"+params.SearchTerm+"%")
		conditions = append(conditions, fmt.Sprintf("(m.content ILIKE $%d OR m.user_name ILIKE $%d)", len(args), len(args)))
	}
	if params.FilterByTag != "" && params.FilterByTag != models.FilterAll {
		args = append(args, params.FilterByTag)
		conditions = append(conditions, fmt.Sprintf("m.tag = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery = strings.TrimSpace(fmt.Sprintf(`SELECT COUNT(*) FROM messages m %s`, whereClause))
	countArgs = args

	var orderClause string
	switch params.SortBy {
	case models.SortByReplies:
		orderClause = "ORDER BY reply_count DESC, m.id DESC"
	case models.SortByDate:
		orderClause = "ORDER BY m.timestamp DESC, m.id DESC"
	default: // likes, ties broken by most recent first
		orderClause = "ORDER BY m.likes DESC, m.timestamp DESC, m.id DESC"
	}

	pageArgs = append(append([]any{}, args...), params.Limit, (params.Page-1)*params.Limit)
	pageQuery = strings.TrimSpace(fmt.Sprintf(`
		SELECT m.id, m.type, m.user_name, m.user_id, m.content, m.timestamp,
		       m.likes, m.dislikes, m.reports, m.tag,
		       (SELECT COUNT(*) FROM replies r WHERE r.message_id = m.id) AS reply_count
		FROM messages m
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderClause, len(args)+1, len(args)+2))

	return countQuery, pageQuery, countArgs, pageArgs
}
