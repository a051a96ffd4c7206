// Package history records popup interactions per project so later prompts
// can refer to what the user already answered. Only text is stored; image
// data never reaches the database.
package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// DefaultMaxEntries is the per-project retention when none is configured.
const DefaultMaxEntries = 20

// SourcePopup marks entries recorded from the desktop popup.
const SourcePopup = "popup"

// Entry is one recorded interaction.
type Entry struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Prompt    string    `json:"prompt"`
	UserReply string    `json:"user_reply"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps the newest entries per project in SQLite.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// ProjectKey derives the storage key for a project path. Paths differing only
// in case, surrounding whitespace or separator style share a key.
func ProjectKey(projectPath string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(projectPath)), "\\", "/")
	sum := blake3.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}

// Open opens or creates the history database at path.
func Open(path string, maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS zhi_history (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	project_key  TEXT NOT NULL,
	project_path TEXT NOT NULL,
	request_id   TEXT NOT NULL,
	prompt       TEXT NOT NULL,
	user_reply   TEXT NOT NULL,
	source       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_zhi_history_project ON zhi_history(project_key, seq);
`)
	if err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add records an entry for projectPath and trims the project to the newest
// maxEntries. It returns the entry id.
func (s *Store) Add(ctx context.Context, projectPath string, e Entry) (string, error) {
	if strings.TrimSpace(projectPath) == "" {
		return "", fmt.Errorf("project path is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Source == "" {
		e.Source = SourcePopup
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	key := ProjectKey(projectPath)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO zhi_history (id, project_key, project_path, request_id, prompt, user_reply, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, key, projectPath, e.RequestID, e.Prompt, e.UserReply, e.Source, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert history entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM zhi_history
		 WHERE project_key = ?
		   AND seq NOT IN (SELECT seq FROM zhi_history WHERE project_key = ? ORDER BY seq DESC LIMIT ?)`,
		key, key, s.maxEntries,
	); err != nil {
		return "", fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history entry: %w", err)
	}
	return e.ID, nil
}

// Recent returns up to n entries for projectPath, newest first.
func (s *Store) Recent(ctx context.Context, projectPath string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.query(ctx,
		`SELECT id, request_id, prompt, user_reply, source, created_at
		 FROM zhi_history WHERE project_key = ? ORDER BY seq DESC LIMIT ?`,
		ProjectKey(projectPath), n)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Prompt, &e.UserReply, &e.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
