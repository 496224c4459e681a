package index

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/arbelos/pulse/internal/models"
)

// indexedPost is the flattened shape stored in the Bleve index. The canonical
// post record lives in storage; the index holds only searchable fields.
type indexedPost struct {
	Text      string    `json:"text"`
	Tags      []string  `json:"tags"`
	Author    string    `json:"author"`
	Lang      string    `json:"lang"`
	CreatedAt time.Time `json:"created_at"`
}

// BleveStore implements Store using Bleve.
type BleveStore struct {
	index      bleve.Index
	generation atomic.Uint64
}

// NewBleveStore creates or opens a Bleve index at path. An existing index is
// opened and reused; if the mapping changes in code, remove the index
// directory to force a full re-index. The generation counter is seeded from
// the document count so a restarted process does not reuse generation zero
// of a non-empty index.
func NewBleveStore(path string) (*BleveStore, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so query terms
	// match exact words in post text and hashtags.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)

	// Author and lang are exact-match filter fields.
	exactFieldMapping := bleve.NewTextFieldMapping()
	exactFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("author", exactFieldMapping)
	docMapping.AddFieldMappingsAt("lang", exactFieldMapping)

	dateFieldMapping := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt("created_at", dateFieldMapping)

	im.AddDocumentMapping("post", docMapping)
	im.DefaultType = "post"
	im.DefaultMapping = docMapping

	var idx bleve.Index
	if _, err := os.Stat(path); err == nil {
		opened, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		idx = opened
	} else {
		created, newErr := bleve.New(path, im)
		if newErr != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", newErr)
		}
		idx = created
	}

	s := &BleveStore{index: idx}
	if count, err := idx.DocCount(); err == nil {
		s.generation.Store(count)
	}
	return s, nil
}

// Index adds or replaces a post in the index.
func (s *BleveStore) Index(ctx context.Context, post *models.Post) error {
	doc := indexedPost{
		Text:      post.Text,
		Tags:      post.Tags,
		Author:    post.Author,
		Lang:      post.Lang,
		CreatedAt: post.CreatedAt,
	}
	if err := s.index.Index(post.ID, doc); err != nil {
		return fmt.Errorf("Bleve index failed: %w", err)
	}
	s.generation.Add(1)
	return nil
}

// Delete removes a post from the index.
func (s *BleveStore) Delete(ctx context.Context, id string) error {
	if err := s.index.Delete(id); err != nil {
		return fmt.Errorf("Bleve delete failed: %w", err)
	}
	s.generation.Add(1)
	return nil
}

// Search runs the structured query and returns hits in store relevance order.
// Ties on score are ordered by document ID so arrival order is deterministic.
func (s *BleveStore) Search(ctx context.Context, q *Query) ([]Hit, error) {
	req := bleve.NewSearchRequestOptions(s.buildQuery(q), q.Size, q.From, false)
	req.SortBy([]string{"-_score", "_id"})

	results, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildQuery translates the structured query into a Bleve boolean query:
// term clauses as shoulds (min 1), filter clauses as musts.
func (s *BleveStore) buildQuery(q *Query) blevequery.Query {
	boolQuery := bleve.NewBooleanQuery()

	if len(q.Terms) > 0 {
		for _, term := range q.Terms {
			textMatch := bleve.NewMatchQuery(term)
			textMatch.SetField("text")
			tagMatch := bleve.NewMatchQuery(term)
			tagMatch.SetField("tags")
			boolQuery.AddShould(bleve.NewDisjunctionQuery(textMatch, tagMatch))
		}
		boolQuery.SetMinShould(1)

		if q.Phrase && len(q.Terms) > 1 {
			phrase := bleve.NewMatchPhraseQuery(strings.Join(q.Terms, " "))
			phrase.SetField("text")
			phrase.SetBoost(2.0)
			boolQuery.AddShould(phrase)
		}
	}

	if q.Author != "" {
		author := bleve.NewTermQuery(q.Author)
		author.SetField("author")
		boolQuery.AddMust(author)
	}
	if q.Lang != "" {
		lang := bleve.NewTermQuery(q.Lang)
		lang.SetField("lang")
		boolQuery.AddMust(lang)
	}
	if q.Since != nil || q.Until != nil {
		start, end := time.Time{}, time.Time{}
		if q.Since != nil {
			start = *q.Since
		}
		if q.Until != nil {
			end = *q.Until
		}
		// Half-open interval: start inclusive, end exclusive.
		incStart, incEnd := true, false
		dateRange := bleve.NewDateRangeInclusiveQuery(start, end, &incStart, &incEnd)
		dateRange.SetField("created_at")
		boolQuery.AddMust(dateRange)
	}

	if len(q.Terms) == 0 {
		// Filter-only query: match everything, let the musts constrain.
		boolQuery.AddMust(bleve.NewMatchAllQuery())
	}
	return boolQuery
}

// Generation returns the current index generation marker.
func (s *BleveStore) Generation() uint64 {
	return s.generation.Load()
}

// DocCount returns the total number of posts in the index.
func (s *BleveStore) DocCount() (uint64, error) {
	return s.index.DocCount()
}

// Close closes the Bleve index.
func (s *BleveStore) Close() error {
	return s.index.Close()
}
