package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	gotTerms []string
	gotLimit int
	records  []Record
	err      error
}

func (f *fakeStore) SearchByTerms(ctx context.Context, terms []string, limit int) ([]Record, error) {
	f.gotTerms = terms
	f.gotLimit = limit
	return f.records, f.err
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"cómo", "solicito", "monitor", "adicional"}, Terms("¿Cómo solicito un monitor adicional? monitor"))
	assert.Empty(t, Terms("¿y tú?"))
}

func TestStoreRetriever_Search(t *testing.T) {
	store := &fakeStore{records: []Record{{DocID: "LIC-MS-365"}}}
	r := NewStoreRetriever(store, 0)

	records, err := r.Search(context.Background(), "licencia Copilot")
	require.NoError(t, err)
	assert.Equal(t, []string{"licencia", "copilot"}, store.gotTerms)
	assert.Equal(t, 5, store.gotLimit)
	assert.Len(t, records, 1)
}

func TestStoreRetriever_NoTermsSkipsStore(t *testing.T) {
	store := &fakeStore{}
	records, err := NewStoreRetriever(store, 3).Search(context.Background(), "¿y?")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Nil(t, store.gotTerms)
}

func TestStoreRetriever_Error(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	_, err := NewStoreRetriever(store, 3).Search(context.Background(), "monitor")
	assert.Error(t, err)
}
