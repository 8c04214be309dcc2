// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/citechat/pkg/types"
)

// Conversation loads one conversation with its messages in commit order.
func (s *Store) Conversation(ctx context.Context, id string) (*types.Conversation, error) {
	var (
		c                types.Conversation
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up conversation: %w", err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var (
			m       types.Message
			role    string
			created string
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = types.Role(role)
		m.CreatedAt = parseTime(created)
		index[m.ID] = len(c.Messages)
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadSources(ctx, id, c.Messages, index); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) loadSources(ctx context.Context, conversationID string, msgs []types.Message, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.message_id, s.video_id, s.youtube_id, s.topic, s.reasoning,
			s.timestamp_start, s.timestamp_end, s.is_faithful
		 FROM sources s
		 JOIN messages m ON m.id = s.message_id
		 WHERE m.conversation_id = ?
		 ORDER BY m.rowid, s.position`, conversationID)
	if err != nil {
		return fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msgID                                string
			videoID, youtubeID, topic, reasoning sql.NullString
			start, end                           sql.NullString
			faithful                             sql.NullBool
		)
		if err := rows.Scan(&msgID, &videoID, &youtubeID, &topic, &reasoning, &start, &end, &faithful); err != nil {
			return fmt.Errorf("scanning source: %w", err)
		}
		i, ok := index[msgID]
		if !ok {
			continue
		}
		msgs[i].Sources = append(msgs[i].Sources, types.Source{
			VideoID:        videoID.String,
			YouTubeID:      youtubeID.String,
			Topic:          topic.String,
			Reasoning:      reasoning.String,
			TimestampStart: start.String,
			TimestampEnd:   end.String,
			IsFaithful:     faithful.Bool,
		})
	}
	return rows.Err()
}

// ListConversations returns the most recently updated conversations first.
// A non-positive limit uses the default of 20.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]types.ConversationSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.created_at, c.updated_at, count(m.id)
		 FROM conversations c
		 LEFT JOIN messages m ON m.conversation_id = c.id
		 GROUP BY c.id
		 ORDER BY c.updated_at DESC, c.id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []types.ConversationSummary
	for rows.Next() {
		var (
			cs               types.ConversationSummary
			created, updated string
		)
		if err := rows.Scan(&cs.ID, &cs.Title, &created, &updated, &cs.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		cs.CreatedAt = parseTime(created)
		cs.UpdatedAt = parseTime(updated)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// Search runs a full-text query over archived message content, best match
// first. Each whitespace-separated word of query must appear; FTS5 syntax
// characters are treated literally.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.conversation_id, c.title, m.id, m.role,
			snippet(messages_fts, 0, '**', '**', '…', 12), m.created_at
		 FROM messages_fts
		 JOIN messages m ON m.rowid = messages_fts.rowid
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE messages_fts MATCH ?
		 ORDER BY messages_fts.rank
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()

	var hits []types.SearchHit
	for rows.Next() {
		var (
			h       types.SearchHit
			role    string
			created string
		)
		if err := rows.Scan(&h.ConversationID, &h.Title, &h.MessageID, &role, &h.Snippet, &created); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Role = types.Role(role)
		h.CreatedAt = parseTime(created)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery quotes each word of q as an FTS5 string so punctuation in user
// input cannot form query syntax.
func ftsQuery(q string) string {
	words := strings.Fields(q)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(words, " ")
}
