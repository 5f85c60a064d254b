package knowledge

import (
	"context"
	"strings"
	"unicode"
)

// RecordStore is the queryable store behind StoreRetriever.
type RecordStore interface {
	SearchByTerms(ctx context.Context, terms []string, limit int) ([]Record, error)
}

// StoreRetriever looks records up in a persistent store by keyword terms.
type StoreRetriever struct {
	store RecordStore
	topK  int
}

func NewStoreRetriever(store RecordStore, topK int) *StoreRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &StoreRetriever{store: store, topK: topK}
}

func (s *StoreRetriever) Search(ctx context.Context, query string) ([]Record, error) {
	terms := Terms(query)
	if len(terms) == 0 {
		return []Record{}, nil
	}
	records, err := s.store.SearchByTerms(ctx, terms, s.topK)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Terms splits a query into distinct lower-case words of at least four letters.
func Terms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 4 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}
