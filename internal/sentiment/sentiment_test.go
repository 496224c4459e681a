package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/arbelos/pulse/internal/config"
)

func TestNew_Modes(t *testing.T) {
	t.Run("off", func(t *testing.T) {
		s, err := New(&config.SentimentConfig{Mode: "off"})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if s != nil {
			t.Fatal("expected nil scorer for mode off")
		}
	})

	t.Run("lexicon", func(t *testing.T) {
		s, err := New(&config.SentimentConfig{Mode: "lexicon", Timeout: config.Duration(time.Second)})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if s == nil {
			t.Fatal("expected scorer")
		}
		defer s.Close()
		got, err := s.Score(context.Background(), "wonderful")
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if got <= 0 {
			t.Errorf("score = %v, want positive", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := New(&config.SentimentConfig{Mode: "vibes"}); err == nil {
			t.Fatal("expected error for unknown mode")
		}
	})
}

type slowScorer struct {
	delay time.Duration
}

func (s *slowScorer) Score(ctx context.Context, text string) (float64, error) {
	select {
	case <-time.After(s.delay):
		return 1, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *slowScorer) Close() error { return nil }

func TestWithTimeout(t *testing.T) {
	t.Run("fast call passes through", func(t *testing.T) {
		s := WithTimeout(&slowScorer{delay: time.Millisecond}, time.Second)
		got, err := s.Score(context.Background(), "x")
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if got != 1 {
			t.Errorf("score = %v, want 1", got)
		}
	})

	t.Run("slow call times out", func(t *testing.T) {
		s := WithTimeout(&slowScorer{delay: time.Second}, 10*time.Millisecond)
		if _, err := s.Score(context.Background(), "x"); err == nil {
			t.Fatal("expected timeout error")
		}
	})
}
