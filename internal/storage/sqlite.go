package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arbelos/pulse/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		author TEXT NOT NULL,
		lang TEXT,
		body TEXT NOT NULL,
		tags TEXT,
		likes INTEGER NOT NULL DEFAULT 0,
		shares INTEGER NOT NULL DEFAULT 0,
		replies INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		sentiment REAL,
		created_at TIMESTAMP NOT NULL,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author);
	`
	_, err := db.Exec(schema)
	return err
}

// CreatePost inserts or replaces a post. Replacing keeps re-ingest of an
// updated post (fresh engagement counters) a single statement.
func (s *SQLiteStorage) CreatePost(ctx context.Context, post *models.Post) error {
	tagsJSON, err := json.Marshal(post.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	post.IndexedAt = time.Now()

	var sentiment sql.NullFloat64
	if post.Sentiment != nil {
		sentiment = sql.NullFloat64{Float64: *post.Sentiment, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO posts
		 (id, author, lang, body, tags, likes, shares, replies, views, sentiment, created_at, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Author, post.Lang, post.Text, string(tagsJSON),
		post.Engagement.Likes, post.Engagement.Shares, post.Engagement.Replies, post.Engagement.Views,
		sentiment, post.CreatedAt, post.IndexedAt,
	)
	return err
}

// GetPost returns a post by ID.
func (s *SQLiteStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, author, lang, body, tags, likes, shares, replies, views, sentiment, created_at, indexed_at
		 FROM posts WHERE id = ?`, id,
	)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return post, err
}

// GetPosts returns the posts for ids that exist, keyed by ID. Missing IDs are
// simply absent from the result.
func (s *SQLiteStorage) GetPosts(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	if len(ids) == 0 {
		return map[string]*models.Post{}, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, author, lang, body, tags, likes, shares, replies, views, sentiment, created_at, indexed_at
		 FROM posts WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*models.Post, len(ids))
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out[post.ID] = post
	}
	return out, rows.Err()
}

// DeletePost removes a post by ID.
func (s *SQLiteStorage) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CountPosts returns the number of stored posts.
func (s *SQLiteStorage) CountPosts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var tagsJSON sql.NullString
	var lang sql.NullString
	var sentiment sql.NullFloat64

	err := row.Scan(
		&post.ID, &post.Author, &lang, &post.Text, &tagsJSON,
		&post.Engagement.Likes, &post.Engagement.Shares, &post.Engagement.Replies, &post.Engagement.Views,
		&sentiment, &post.CreatedAt, &post.IndexedAt,
	)
	if err != nil {
		return nil, err
	}
	post.Lang = lang.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &post.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if sentiment.Valid {
		v := sentiment.Float64
		post.Sentiment = &v
	}
	return &post, nil
}
