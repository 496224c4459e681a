// Package storage defines the canonical post store interface and its SQLite implementation.
package storage

import (
	"context"
	"errors"

	"github.com/arbelos/pulse/internal/models"
)

// ErrNotFound is returned when a post does not exist in the store.
var ErrNotFound = errors.New("post not found")

// Storage persists canonical post records. The inverted index holds only
// searchable fields; the retriever hydrates full posts from here.
type Storage interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetPosts(ctx context.Context, ids []string) (map[string]*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	CountPosts(ctx context.Context) (int, error)
	Close() error
}
