package models

import (
	"testing"
	"time"
)

func TestNormalizeTerms(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"case fold and trim", []string{" Election ", "NEWS"}, []string{"election", "news"}},
		{"drop empties", []string{"", "  ", "vote"}, []string{"vote"}},
		{"dedupe keeps first", []string{"vote", "Vote", "poll", "vote"}, []string{"vote", "poll"}},
		{"empty input", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTerms(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("term %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRankingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RankingRequest
		wantErr bool
	}{
		{"defaults page size", RankingRequest{Terms: []string{"a"}}, false},
		{"negative page size", RankingRequest{Terms: []string{"a"}, PageSize: -1}, true},
		{"page size over max", RankingRequest{Terms: []string{"a"}, PageSize: 101}, true},
		{"negative offset", RankingRequest{Terms: []string{"a"}, Offset: -3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsInvalidRequest(err) {
				t.Errorf("expected InvalidRequest classification, got %T", err)
			}
		})
	}

	req := RankingRequest{Terms: []string{"a"}}
	if err := req.Validate(100); err != nil {
		t.Fatal(err)
	}
	if req.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", req.PageSize, DefaultPageSize)
	}
}

func TestRankingRequest_ValidateEmptyWindow(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req := RankingRequest{Terms: []string{"a"}, Since: &at, Until: &at}
	if err := req.Validate(100); err == nil {
		t.Fatal("expected error for empty time window")
	}
}

func TestRankingRequest_Fingerprint(t *testing.T) {
	a := RankingRequest{Terms: []string{" Election ", "news"}, PageSize: 10}
	b := RankingRequest{Terms: []string{"election", "NEWS"}, PageSize: 10}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("requests normalizing identically should share a fingerprint")
	}

	c := RankingRequest{Terms: []string{"election"}, PageSize: 10}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different term sets should produce different fingerprints")
	}

	// Weight overrides are part of the identity.
	d := RankingRequest{Terms: []string{"election"}, PageSize: 10, Weights: map[string]float64{"recency": 1}}
	if c.Fingerprint() == d.Fingerprint() {
		t.Error("weight overrides should change the fingerprint")
	}

	// Deterministic across calls.
	if d.Fingerprint() != d.Fingerprint() {
		t.Error("fingerprint should be deterministic")
	}
}

func TestRankingRequest_HasFilter(t *testing.T) {
	if (&RankingRequest{}).HasFilter() {
		t.Error("empty request should have no filter")
	}
	if !(&RankingRequest{Author: "alice"}).HasFilter() {
		t.Error("author filter not detected")
	}
	now := time.Now()
	if !(&RankingRequest{Since: &now}).HasFilter() {
		t.Error("time filter not detected")
	}
}
