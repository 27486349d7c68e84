package search

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/epinhell/internal/es"
	"github.com/Skotchmaster/epinhell/internal/models"
)

type fakeCluster struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.bodies[key] = body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"}}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":3,"name":"Steam Card","price":"25.00"}}]}}`)
	case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/404"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	case r.Method == http.MethodDelete:
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	default:
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}
}

func newIndex(t *testing.T) (*ProductIndex, *fakeCluster) {
	t.Helper()

	fc := &fakeCluster{bodies: map[string][]byte{}}
	srv := httptest.NewServer(fc)
	t.Cleanup(srv.Close)

	client, err := es.NewClient(es.Config{URL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return &ProductIndex{ES: client, Index: "products"}, fc
}

func TestProductIndex_IndexProduct(t *testing.T) {
	idx, fc := newIndex(t)

	prod := &models.Product{ID: 3, Name: "Steam Card", Price: decimal.RequireFromString("25.00")}
	require.NoError(t, idx.IndexProduct(context.Background(), prod))

	body := fc.bodies["PUT /products/_doc/3"]
	require.NotEmpty(t, body)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "Steam Card", doc["name"])
}

func TestProductIndex_DeleteIgnoresMissing(t *testing.T) {
	idx, _ := newIndex(t)

	require.NoError(t, idx.DeleteProduct(context.Background(), 3))
	require.NoError(t, idx.DeleteProduct(context.Background(), 404))
}

func TestProductIndex_Search(t *testing.T) {
	idx, fc := newIndex(t)

	total, items, err := idx.Search(context.Background(), "steam", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Steam Card", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(25)))

	var sent map[string]any
	for k, b := range fc.bodies {
		if strings.HasSuffix(k, "/products/_search") {
			require.NoError(t, json.Unmarshal(b, &sent))
		}
	}
	require.NotNil(t, sent)
	assert.Contains(t, sent["query"], "multi_match")
}
