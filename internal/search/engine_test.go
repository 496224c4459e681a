package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arbelos/pulse/internal/cache"
	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/storage"
)

type fakeStore struct {
	mu         sync.Mutex
	hits       []index.Hit
	searches   int
	generation uint64
}

func (f *fakeStore) Search(_ context.Context, _ *index.Query) ([]index.Hit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.hits, nil
}

func (f *fakeStore) Index(_ context.Context, _ *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	return nil
}

func (f *fakeStore) Delete(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	return nil
}

func (f *fakeStore) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

func (f *fakeStore) DocCount() (uint64, error) {
	return uint64(len(f.hits)), nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

type fakeStorage struct {
	posts map[string]*models.Post
}

func (s *fakeStorage) CreatePost(_ context.Context, post *models.Post) error {
	s.posts[post.ID] = post
	return nil
}

func (s *fakeStorage) GetPost(_ context.Context, id string) (*models.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return post, nil
}

func (s *fakeStorage) GetPosts(_ context.Context, ids []string) (map[string]*models.Post, error) {
	out := make(map[string]*models.Post)
	for _, id := range ids {
		if post, ok := s.posts[id]; ok {
			out[id] = post
		}
	}
	return out, nil
}

func (s *fakeStorage) DeletePost(_ context.Context, id string) error {
	delete(s.posts, id)
	return nil
}

func (s *fakeStorage) CountPosts(_ context.Context) (int, error) { return len(s.posts), nil }

func (s *fakeStorage) Close() error { return nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func post(id, text string, likes int64, age time.Duration) *models.Post {
	return &models.Post{
		ID:         id,
		Author:     "author-" + id,
		Text:       text,
		Engagement: models.Engagement{Likes: likes},
		CreatedAt:  time.Now().Add(-age),
	}
}

func testEngine(t *testing.T, withCache bool) (*Engine, *fakeStore) {
	t.Helper()
	store := &fakeStore{hits: []index.Hit{
		{ID: "p1", Score: 3.0},
		{ID: "p2", Score: 2.0},
		{ID: "p3", Score: 1.0},
	}}
	st := &fakeStorage{posts: map[string]*models.Post{
		"p1": post("p1", "go release announcement", 10, time.Hour),
		"p2": post("p2", "go go go release", 100000, time.Hour),
		"p3": post("p3", "unrelated gardening tips", 5, time.Hour),
	}}
	var rc *cache.ResultCache
	if withCache {
		memStore := cache.NewMemoryStore()
		t.Cleanup(func() { memStore.Close() })
		rc = cache.New(memStore, time.Minute, nil)
	}
	return NewEngine(store, st, nil, testConfig(), rc, nil), store
}

func TestEngine_Rank(t *testing.T) {
	e, _ := testEngine(t, false)

	resp, err := e.Rank(context.Background(), &models.RankingRequest{Terms: []string{"go", "release"}})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(resp.Results))
	}

	// p2 matches both terms with far higher engagement; p3 matches nothing.
	if resp.Results[0].Post.ID != "p2" {
		t.Errorf("top result = %s, want p2", resp.Results[0].Post.ID)
	}
	if last := resp.Results[2]; last.Post.ID != "p3" {
		t.Errorf("last result = %s, want p3", last.Post.ID)
	} else if last.Features[models.FeatureRelevance] != 0 {
		t.Errorf("non-matching post relevance = %v, want 0", last.Features[models.FeatureRelevance])
	}

	for i, r := range resp.Results {
		if r.Rank != i+1 {
			t.Errorf("result %d rank = %d, want %d", i, r.Rank, i+1)
		}
		if len(r.Breakdown) != len(models.FeatureOrder) {
			t.Errorf("result %d breakdown has %d entries", i, len(r.Breakdown))
		}
	}
}

func TestEngine_Rank_InvalidWeightFailsBeforeRetrieval(t *testing.T) {
	e, store := testEngine(t, false)

	_, err := e.Rank(context.Background(), &models.RankingRequest{
		Terms:   []string{"go"},
		Weights: map[string]float64{"typo": 1},
	})
	if !models.IsInvalidRequest(err) {
		t.Fatalf("err = %v, want InvalidRequest", err)
	}
	if store.searchCount() != 0 {
		t.Errorf("index searched %d times before weight validation, want 0", store.searchCount())
	}
}

func TestEngine_Rank_CacheReuse(t *testing.T) {
	e, store := testEngine(t, true)
	ctx := context.Background()
	req := &models.RankingRequest{Terms: []string{"go"}}

	first, err := e.Rank(ctx, req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	second, err := e.Rank(ctx, req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if store.searchCount() != 1 {
		t.Errorf("index searched %d times for equal requests, want 1", store.searchCount())
	}
	if first.Total != second.Total || len(first.Results) != len(second.Results) {
		t.Error("cached response differs from computed response")
	}
	for i := range first.Results {
		if first.Results[i].Post.ID != second.Results[i].Post.ID {
			t.Errorf("result %d: %s vs %s", i, first.Results[i].Post.ID, second.Results[i].Post.ID)
		}
		if first.Results[i].Score != second.Results[i].Score {
			t.Errorf("result %d score: %v vs %v", i, first.Results[i].Score, second.Results[i].Score)
		}
	}
}

func TestEngine_Rank_GenerationInvalidatesCache(t *testing.T) {
	e, store := testEngine(t, true)
	ctx := context.Background()
	req := &models.RankingRequest{Terms: []string{"go"}}

	if _, err := e.Rank(ctx, req); err != nil {
		t.Fatalf("Rank: %v", err)
	}
	// An index mutation bumps the generation; the cached entry must go stale.
	if err := store.Index(ctx, &models.Post{ID: "p9"}); err != nil {
		t.Fatal(err)
	}
	resp, err := e.Rank(ctx, req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if store.searchCount() != 2 {
		t.Errorf("index searched %d times across generations, want 2", store.searchCount())
	}
	if resp.Generation != store.Generation() {
		t.Errorf("response generation = %d, want %d", resp.Generation, store.Generation())
	}
}

func TestEngine_Rank_OffsetBeyondTotal(t *testing.T) {
	e, _ := testEngine(t, false)

	resp, err := e.Rank(context.Background(), &models.RankingRequest{
		Terms:  []string{"go"},
		Offset: 50,
	})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("got %d results, want 0", len(resp.Results))
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
}

func TestEngine_Status(t *testing.T) {
	e, store := testEngine(t, false)
	docs, generation, err := e.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if docs != 3 {
		t.Errorf("docs = %d, want 3", docs)
	}
	if generation != store.Generation() {
		t.Errorf("generation = %d, want %d", generation, store.Generation())
	}
}
