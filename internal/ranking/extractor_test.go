package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/arbelos/pulse/internal/models"
)

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(rankingConfig(), nil, nil)
	req := &models.RankingRequest{Terms: []string{"go"}}

	candidates := make([]*models.Candidate, 20)
	for i := range candidates {
		text := "unrelated"
		if i%2 == 0 {
			text = "all about go"
		}
		candidates[i] = &models.Candidate{
			Post: &models.Post{
				ID:        string(rune('a' + i)),
				Text:      text,
				CreatedAt: time.Now(),
			},
			RetrievalRank: i + 1,
		}
	}

	vectors, err := e.Extract(context.Background(), req, candidates)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(vectors) != len(candidates) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(candidates))
	}

	// Vectors must line up with their candidates, not completion order.
	for i, v := range vectors {
		for _, f := range models.FeatureOrder {
			val, ok := v[f]
			if !ok {
				t.Fatalf("vector %d missing feature %s", i, f)
			}
			if val < 0 || val > 1 {
				t.Errorf("vector %d feature %s = %v out of [0,1]", i, f, val)
			}
		}
		rel := v[models.FeatureRelevance]
		if i%2 == 0 && rel == 0 {
			t.Errorf("vector %d: matching post has zero relevance", i)
		}
		if i%2 == 1 && rel != 0 {
			t.Errorf("vector %d: non-matching post has relevance %v", i, rel)
		}
	}
}

func TestExtractor_Cancelled(t *testing.T) {
	e := NewExtractor(rankingConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := []*models.Candidate{
		{Post: &models.Post{ID: "p1", Text: "hello"}, RetrievalRank: 1},
	}
	if _, err := e.Extract(ctx, &models.RankingRequest{Terms: []string{"hello"}}, candidates); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
