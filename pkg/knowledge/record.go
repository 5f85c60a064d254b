// Package knowledge holds the retrieval capability: given a user query it returns candidate
// knowledge records that ground the assistant's answer.
package knowledge

import (
	"context"
	"errors"
)

// Record is one retrieved knowledge entry. Records are immutable once retrieved.
type Record struct {
	DocID          string  `json:"doc_id"`
	Title          string  `json:"title"`
	Section        string  `json:"section"`
	VersionDate    string  `json:"version_date"`
	Text           string  `json:"text"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Retriever is the narrow, swappable retrieval contract.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Record, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, query string) ([]Record, error)

func (f RetrieverFunc) Search(ctx context.Context, query string) ([]Record, error) {
	return f(ctx, query)
}

var (
	ErrRetrievalTimeout     = errors.New("retrieval timed out")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
)

// StaticRetriever always returns the same records. An empty StaticRetriever is the "no
// knowledge" stub.
type StaticRetriever struct {
	Records []Record
}

func (s StaticRetriever) Search(ctx context.Context, query string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Record, len(s.Records))
	copy(out, s.Records)
	return out, nil
}
