package query

import (
	"errors"
	"testing"

	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/models"
)

func newTestBuilder() *Builder {
	return NewBuilder(&config.RetrievalConfig{
		OverFetchFactor: 5,
		MaxCandidates:   1000,
		PageSizeMax:     100,
	})
}

func TestBuilder_Build(t *testing.T) {
	b := newTestBuilder()

	q, err := b.Build(&models.RankingRequest{
		Terms:    []string{" Election ", "NEWS", "election"},
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(q.Terms) != 2 || q.Terms[0] != "election" || q.Terms[1] != "news" {
		t.Errorf("Terms = %v", q.Terms)
	}
	if q.From != 0 {
		t.Errorf("From = %d, want 0", q.From)
	}
	// Over-fetch: 10 * 5.
	if q.Size != 50 {
		t.Errorf("Size = %d, want 50", q.Size)
	}
}

func TestBuilder_EmptyTermsNoFilter(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(&models.RankingRequest{Terms: []string{"  ", ""}})
	if err == nil {
		t.Fatal("expected InvalidRequest")
	}
	if !models.IsInvalidRequest(err) {
		t.Errorf("err = %v, want InvalidRequest", err)
	}
}

func TestBuilder_EmptyTermsWithFilterOK(t *testing.T) {
	b := newTestBuilder()

	q, err := b.Build(&models.RankingRequest{Author: "alice"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Author != "alice" {
		t.Errorf("Author = %q", q.Author)
	}
}

func TestBuilder_CapExceeded(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(&models.RankingRequest{
		Terms:    []string{"election"},
		Offset:   995,
		PageSize: 10,
	})
	if err == nil {
		t.Fatal("expected CapExceeded")
	}
	var ce *models.CapExceededError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %T, want CapExceededError", err)
	}
	if ce.Requested != 1005 || ce.Cap != 1000 {
		t.Errorf("CapExceeded = %+v", ce)
	}
}

func TestBuilder_FetchClampedToCap(t *testing.T) {
	b := newTestBuilder()

	// 100 * 5 = 500 over-fetch fits; offset pushes need above over-fetch.
	q, err := b.Build(&models.RankingRequest{
		Terms:    []string{"election"},
		Offset:   600,
		PageSize: 100,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Size != 700 {
		t.Errorf("Size = %d, want 700 (offset+page beyond over-fetch window)", q.Size)
	}

	// Over-fetch beyond the cap clamps to the cap.
	b2 := NewBuilder(&config.RetrievalConfig{OverFetchFactor: 50, MaxCandidates: 1000, PageSizeMax: 100})
	q2, err := b2.Build(&models.RankingRequest{Terms: []string{"election"}, PageSize: 100})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q2.Size != 1000 {
		t.Errorf("Size = %d, want cap 1000", q2.Size)
	}
}

func TestBuilder_PageSizeMax(t *testing.T) {
	b := newTestBuilder()
	_, err := b.Build(&models.RankingRequest{Terms: []string{"a"}, PageSize: 101})
	if err == nil || !models.IsInvalidRequest(err) {
		t.Fatalf("err = %v, want InvalidRequest", err)
	}
}
