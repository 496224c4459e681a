// Package ingest writes posts into the canonical store and the inverted index.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/storage"
)

// Indexer ingests posts: the canonical record goes to storage, the searchable
// fields go to the index store. The index write comes last so a post visible
// in search results can always be hydrated.
type Indexer struct {
	storage storage.Storage
	store   index.Store
	logger  *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (post ingested, post deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer over the given storage and index store.
func NewIndexer(st storage.Storage, store index.Store, opts ...IndexerOption) *Indexer {
	idx := &Indexer{storage: st, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IngestPost validates and ingests one post. A missing ID gets a generated
// one; a missing created_at timestamp defaults to now.
func (idx *Indexer) IngestPost(ctx context.Context, input *models.PostInput) (*models.Post, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, &models.InvalidRequestError{Field: "text", Reason: "must not be empty"}
	}
	if input.Sentiment != nil && (*input.Sentiment < -1 || *input.Sentiment > 1) {
		return nil, &models.InvalidRequestError{Field: "sentiment", Reason: "must be in [-1, 1]"}
	}

	post := &models.Post{
		ID:         input.ID,
		Author:     strings.TrimSpace(input.Author),
		Lang:       strings.ToLower(strings.TrimSpace(input.Lang)),
		Text:       input.Text,
		Tags:       normalizeTags(input.Tags),
		Engagement: input.Engagement,
		Sentiment:  input.Sentiment,
		CreatedAt:  input.CreatedAt,
		IndexedAt:  time.Now().UTC(),
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = post.IndexedAt
	}

	if err := idx.storage.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to store post: %w", err)
	}
	if err := idx.store.Index(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to index post: %w", err)
	}

	idx.logger.Debug("post ingested",
		zap.String("post_id", post.ID),
		zap.String("author", post.Author))
	return post, nil
}

// DeletePost removes a post from both the index and the canonical store.
// Deleting an unknown post is not an error.
func (idx *Indexer) DeletePost(ctx context.Context, id string) error {
	if err := idx.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove post from index: %w", err)
	}
	if err := idx.storage.DeletePost(ctx, id); err != nil && err != storage.ErrNotFound {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	idx.logger.Debug("post deleted", zap.String("post_id", id))
	return nil
}

// IngestFile ingests a spool file of posts. Files ending in .json hold a JSON
// array of posts; anything else is treated as NDJSON, one post per line.
// Returns the number of posts ingested; a malformed record aborts the file.
func (idx *Indexer) IngestFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open spool file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return idx.ingestArray(ctx, f)
	}
	return idx.ingestLines(ctx, f)
}

func (idx *Indexer) ingestArray(ctx context.Context, r io.Reader) (int, error) {
	var inputs []models.PostInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return 0, fmt.Errorf("failed to parse post array: %w", err)
	}
	for i := range inputs {
		if _, err := idx.IngestPost(ctx, &inputs[i]); err != nil {
			return i, fmt.Errorf("post %d: %w", i, err)
		}
	}
	return len(inputs), nil
}

func (idx *Indexer) ingestLines(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var input models.PostInput
		if err := json.Unmarshal([]byte(text), &input); err != nil {
			return count, fmt.Errorf("line %d: failed to parse post: %w", line, err)
		}
		if _, err := idx.IngestPost(ctx, &input); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read spool file: %w", err)
	}
	return count, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
