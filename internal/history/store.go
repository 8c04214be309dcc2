// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives conversations in a local SQLite database with a
// full-text index over message content.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citechat/pkg/types"
)

const (
	dbFile = "history.db"

	// titleLen bounds a conversation title derived from its first question.
	titleLen = 60

	defaultListLimit = 20

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Store manages the history SQLite database.
type Store struct {
	db  *sql.DB
	dir string
	now func() time.Time
}

// Open opens or creates dir/history.db and its schema.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
		`CREATE TABLE IF NOT EXISTS sources (
			message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			video_id TEXT,
			youtube_id TEXT,
			topic TEXT,
			reasoning TEXT,
			timestamp_start TEXT,
			timestamp_end TEXT,
			is_faithful INTEGER,
			PRIMARY KEY (message_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='messages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE messages_fts USING fts5(content, content=messages, content_rowid=rowid)`,
		`CREATE TRIGGER messages_ai AFTER INSERT ON messages BEGIN
			INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER messages_ad AFTER DELETE ON messages BEGIN
			INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER messages_au AFTER UPDATE ON messages BEGIN
			INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// CreateConversation starts an empty conversation.
func (s *Store) CreateConversation(ctx context.Context, title string) (types.Conversation, error) {
	now := s.now().UTC()
	c := types.Conversation{
		ID:        uuid.New().String(),
		Title:     truncateTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, formatTime(now), formatTime(now),
	)
	if err != nil {
		return types.Conversation{}, fmt.Errorf("inserting conversation: %w", err)
	}
	return c, nil
}

// AppendMessage adds msg and its sources to a conversation. An untitled
// conversation takes its title from the first user message.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg types.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var title string
	err = tx.QueryRowContext(ctx, `SELECT title FROM conversations WHERE id = ?`, conversationID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, conversationID)
	}
	if err != nil {
		return fmt.Errorf("looking up conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, conversationID, string(msg.Role), msg.Content, formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting message %s: %w", msg.ID, err)
	}

	if len(msg.Sources) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO sources (message_id, position, video_id, youtube_id, topic, reasoning,
				timestamp_start, timestamp_end, is_faithful)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing source insert: %w", err)
		}
		defer stmt.Close()

		for i, src := range msg.Sources {
			_, err := stmt.ExecContext(ctx,
				msg.ID, i, src.VideoID, src.YouTubeID, src.Topic, src.Reasoning,
				src.TimestampStart, src.TimestampEnd, src.IsFaithful,
			)
			if err != nil {
				return fmt.Errorf("inserting source %d of %s: %w", i, msg.ID, err)
			}
		}
	}

	if title == "" && msg.Role == types.RoleUser {
		title = truncateTitle(msg.Content)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(s.now().UTC()), conversationID,
	)
	if err != nil {
		return fmt.Errorf("updating conversation: %w", err)
	}

	return tx.Commit()
}

// DeleteConversation removes a conversation and everything in it.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func truncateTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= titleLen {
		return s
	}
	return strings.TrimSpace(string(r[:titleLen-1])) + "…"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
