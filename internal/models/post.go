// Package models defines core data structures for posts, ranking requests, and ranked results.
package models

import "time"

// Engagement holds raw interaction counters for a post.
// Counters missing at ingest time stay zero.
type Engagement struct {
	Likes   int64 `json:"likes,omitempty"`
	Shares  int64 `json:"shares,omitempty"`
	Replies int64 `json:"replies,omitempty"`
	Views   int64 `json:"views,omitempty"`
}

// Post represents an indexed social-media post. Posts are written by the
// ingest side and treated as immutable by the ranking pipeline.
type Post struct {
	ID         string     `json:"id" db:"id"`
	Author     string     `json:"author" db:"author"`
	Lang       string     `json:"lang,omitempty" db:"lang"`
	Text       string     `json:"text" db:"text"`
	Tags       []string   `json:"tags,omitempty" db:"tags"`
	Engagement Engagement `json:"engagement" db:"engagement"`
	// Sentiment is a precomputed sentiment score in [-1, 1] when the producer
	// supplied one; nil means sentiment is scored on the fly at ranking time.
	Sentiment *float64  `json:"sentiment,omitempty" db:"sentiment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	IndexedAt time.Time `json:"indexed_at" db:"indexed_at"`
}

// PostInput is the input for ingesting a post. ID is assigned when empty.
type PostInput struct {
	ID         string     `json:"id,omitempty"`
	Author     string     `json:"author"`
	Lang       string     `json:"lang,omitempty"`
	Text       string     `json:"text"`
	Tags       []string   `json:"tags,omitempty"`
	Engagement Engagement `json:"engagement"`
	Sentiment  *float64   `json:"sentiment,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
