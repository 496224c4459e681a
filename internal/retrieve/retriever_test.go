package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/models"
)

var errTransient = errors.New("transient store failure")

// fakeStore scripts Search responses: each call consumes one entry.
type fakeStore struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	hits []index.Hit
	err  error
}

func (f *fakeStore) Search(ctx context.Context, q *index.Query) ([]index.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	resp := f.responses[i]
	return resp.hits, resp.err
}

func (f *fakeStore) Index(ctx context.Context, post *models.Post) error { return nil }
func (f *fakeStore) Delete(ctx context.Context, id string) error        { return nil }
func (f *fakeStore) Generation() uint64                                 { return 1 }
func (f *fakeStore) DocCount() (uint64, error)                          { return 0, nil }
func (f *fakeStore) Close() error                                       { return nil }

// fakeStorage serves posts from a map.
type fakeStorage struct {
	posts map[string]*models.Post
	err   error
}

func (f *fakeStorage) CreatePost(ctx context.Context, post *models.Post) error { return nil }
func (f *fakeStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}
func (f *fakeStorage) GetPosts(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]*models.Post{}
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
func (f *fakeStorage) DeletePost(ctx context.Context, id string) error { return nil }
func (f *fakeStorage) CountPosts(ctx context.Context) (int, error)     { return len(f.posts), nil }
func (f *fakeStorage) Close() error                                    { return nil }

func fastConfig(retries int) *config.RetrievalConfig {
	return &config.RetrievalConfig{
		Retries:     retries,
		BackoffBase: config.Duration(time.Millisecond),
		BackoffCap:  config.Duration(2 * time.Millisecond),
		Timeout:     config.Duration(time.Second),
	}
}

func postsFor(ids ...string) map[string]*models.Post {
	out := map[string]*models.Post{}
	for _, id := range ids {
		out[id] = &models.Post{ID: id, Author: "a", Text: "t", CreatedAt: time.Now()}
	}
	return out
}

func TestRetriever_DedupeFirstOccurrenceWins(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{{
		hits: []index.Hit{
			{ID: "a", Score: 3},
			{ID: "b", Score: 2},
			{ID: "a", Score: 1},
			{ID: "c", Score: 1},
		},
	}}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor("a", "b", "c")}, fastConfig(0))

	cands, err := r.Retrieve(context.Background(), &index.Query{Terms: []string{"x"}, Size: 10})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3", len(cands))
	}
	wantOrder := []string{"a", "b", "c"}
	for i, c := range cands {
		if c.Post.ID != wantOrder[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.Post.ID, wantOrder[i])
		}
		if c.RetrievalRank != i+1 {
			t.Errorf("candidate %d rank = %d, want %d", i, c.RetrievalRank, i+1)
		}
	}
	// First occurrence keeps its score.
	if cands[0].StoreScore != 3 {
		t.Errorf("duplicate did not keep first occurrence score: %v", cands[0].StoreScore)
	}
}

func TestRetriever_RetriesTransientThenSucceeds(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{
		{err: errTransient},
		{err: errTransient},
		{hits: []index.Hit{{ID: "a", Score: 1}}},
	}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor("a")}, fastConfig(3))

	cands, err := r.Retrieve(context.Background(), &index.Query{Terms: []string{"x"}, Size: 10})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if store.calls != 3 {
		t.Errorf("store called %d times, want 3", store.calls)
	}
}

func TestRetriever_ExhaustedRetriesSurfaceUnavailable(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{{err: errTransient}}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor()}, fastConfig(2))

	_, err := r.Retrieve(context.Background(), &index.Query{Terms: []string{"x"}, Size: 10})
	if !models.IsRetrievalUnavailable(err) {
		t.Fatalf("err = %v, want RetrievalUnavailable", err)
	}
	var ru *models.RetrievalUnavailableError
	if errors.As(err, &ru) && ru.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", ru.Attempts)
	}
	if store.calls != 3 {
		t.Errorf("store called %d times, want 3", store.calls)
	}
}

func TestRetriever_ContractViolationNotRetried(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{
		{err: &models.ContractViolationError{Detail: "bad payload"}},
		{hits: []index.Hit{{ID: "a", Score: 1}}},
	}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor("a")}, fastConfig(3))

	_, err := r.Retrieve(context.Background(), &index.Query{Terms: []string{"x"}, Size: 10})
	if !models.IsContractViolation(err) {
		t.Fatalf("err = %v, want ContractViolation", err)
	}
	if store.calls != 1 {
		t.Errorf("store called %d times, want 1 (no retry)", store.calls)
	}
}

func TestRetriever_EmptyHitIDIsContractViolation(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{{
		hits: []index.Hit{{ID: "", Score: 1}},
	}}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor()}, fastConfig(0))

	_, err := r.Retrieve(context.Background(), &index.Query{Terms: []string{"x"}, Size: 10})
	if !models.IsContractViolation(err) {
		t.Fatalf("err = %v, want ContractViolation", err)
	}
}

func TestRetriever_CancellationStopsRetries(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{{err: errTransient}}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor()}, &config.RetrievalConfig{
		Retries:     5,
		BackoffBase: config.Duration(time.Hour),
		BackoffCap:  config.Duration(time.Hour),
		Timeout:     config.Duration(time.Second),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Retrieve(ctx, &index.Query{Terms: []string{"x"}, Size: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation did not interrupt backoff sleep")
	}
}

func TestRetriever_MissingPostSkipped(t *testing.T) {
	store := &fakeStore{responses: []fakeResponse{{
		hits: []index.Hit{{ID: "a", Score: 2}, {ID: "gone", Score: 1.5}, {ID: "b", Score: 1}},
	}}}
	r := NewRetriever(store, &fakeStorage{posts: postsFor("a", "b")}, fastConfig(0))

	cands, err := r.Retrieve(context.Background(), &index.Query{Terms: []string{"x"}, Size: 10})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	// Ranks stay contiguous after the skip.
	if cands[0].RetrievalRank != 1 || cands[1].RetrievalRank != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", cands[0].RetrievalRank, cands[1].RetrievalRank)
	}
}
