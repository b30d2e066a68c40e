package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekoinbox/backend/internal/models"
	"github.com/nekoinbox/backend/internal/repository"
)

// MessageStore is the relational implementation. There are no
// maintained index structures here: every listing is computed from the
// rows themselves, so an index can never disagree with the store.
type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, type, user_name, user_id, content, timestamp, likes, dislikes, reports, tag`

func (s *MessageStore) Create(ctx context.Context, sub models.Submission) (*models.Message, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO messages (id, type, user_name, user_id, content, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + messageColumns

	row := s.pool.QueryRow(ctx, query,
		models.NewMessageID(now), sub.Type, sub.UserName, sub.UserID, sub.Content, now)
	msg, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	msg.Replies = []models.Reply{}
	return msg, nil
}

func (s *MessageStore) Get(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	if err := s.attachReplies(ctx, s.pool, []*models.Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageStore) List(ctx context.Context, params models.ListParams) (*models.MessageList, error) {
	countQuery, pageQuery, countArgs, pageArgs := buildListQueries(params)

	// Count, page and reply fetch run in one read transaction so the
	// envelope totals describe the same snapshot as the page itself.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin list tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	rows, err := tx.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	page := make([]*models.Message, 0)
	for rows.Next() {
		var msg models.Message
		var replyCount int
		if err := rows.Scan(
			&msg.ID,
			&msg.Type,
			&msg.UserName,
			&msg.UserID,
			&msg.Content,
			&msg.Timestamp,
			&msg.Likes,
			&msg.Dislikes,
			&msg.Reports,
			&msg.Tag,
			&replyCount,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Replies = []models.Reply{}
		page = append(page, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	rows.Close()

	if err := s.attachReplies(ctx, tx, page); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit list tx: %w", err)
	}

	messages := make([]models.Message, 0, len(page))
	for _, msg := range page {
		messages = append(messages, *msg)
	}
	return &models.MessageList{
		Messages:      messages,
		TotalMessages: total,
		TotalPages:    models.TotalPages(total, params.Limit),
		CurrentPage:   params.Page,
	}, nil
}

func (s *MessageStore) Vote(ctx context.Context, id string, vote models.VoteType) (*models.Message, error) {
	// Column chosen from the validated enum, never from raw input.
	var query string
	switch vote {
	case models.VoteLike:
		query = `UPDATE messages SET likes = likes + 1 WHERE id = $1 RETURNING ` + messageColumns
	case models.VoteDislike:
		query = `UPDATE messages SET dislikes = dislikes + 1 WHERE id = $1 RETURNING ` + messageColumns
	default:
		return nil, fmt.Errorf("invalid vote type %q", vote)
	}
	return s.updateReturning(ctx, query, id)
}

func (s *MessageStore) Report(ctx context.Context, id string) (*models.Message, error) {
	query := `UPDATE messages SET reports = reports + 1 WHERE id = $1 RETURNING ` + messageColumns
	return s.updateReturning(ctx, query, id)
}

func (s *MessageStore) AddReply(ctx context.Context, id, content string) (*models.Reply, error) {
	now := time.Now().UTC()
	reply := models.Reply{
		ID:        models.NewReplyID(now),
		Timestamp: now,
		Content:   content,
	}

	query := `INSERT INTO replies (id, message_id, content, timestamp) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, reply.ID, id, reply.Content, reply.Timestamp); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// FK violation: the referenced message does not exist.
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert reply: %w", err)
	}
	return &reply, nil
}

func (s *MessageStore) SetTag(ctx context.Context, id string, tag models.Tag) (*models.Message, error) {
	query := `UPDATE messages SET tag = $2 WHERE id = $1 RETURNING ` + messageColumns
	return s.updateReturning(ctx, query, id, tag)
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	// Replies go with the message via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// updateReturning runs a single-row UPDATE ... RETURNING and hands
// back the fresh message with replies attached.
func (s *MessageStore) updateReturning(ctx context.Context, query, id string, extra ...any) (*models.Message, error) {
	args := append([]any{id}, extra...)
	msg, err := scanMessage(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	if err := s.attachReplies(ctx, s.pool, []*models.Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

// querier covers both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// attachReplies loads the replies for a batch of messages in one
// query and distributes them in memory, oldest first.
func (s *MessageStore) attachReplies(ctx context.Context, q querier, messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]string, 0, len(messages))
	byID := make(map[string]*models.Message, len(messages))
	for _, msg := range messages {
		if msg.Replies == nil {
			msg.Replies = []models.Reply{}
		}
		ids = append(ids, msg.ID)
		byID[msg.ID] = msg
	}

	query := `
		SELECT id, message_id, content, timestamp
		FROM replies
		WHERE message_id = ANY($1)
		ORDER BY timestamp ASC, id ASC`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reply models.Reply
		var messageID string
		if err := rows.Scan(&reply.ID, &messageID, &reply.Content, &reply.Timestamp); err != nil {
			return fmt.Errorf("scan reply: %w", err)
		}
		if msg, ok := byID[messageID]; ok {
			msg.Replies = append(msg.Replies, reply)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate replies: %w", err)
	}
	return nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.Type,
		&msg.UserName,
		&msg.UserID,
		&msg.Content,
		&msg.Timestamp,
		&msg.Likes,
		&msg.Dislikes,
		&msg.Reports,
		&msg.Tag,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
