package es

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		user, pass, _ := r.BasicAuth()
		if user != "elastic" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"}}`)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Username: "elastic", Password: "secret"}, quiet())
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewClient(Config{URL: srv.URL, Username: "elastic", Password: "wrong"}, quiet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
