package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/epinhell/internal/db"
	"github.com/Skotchmaster/epinhell/internal/repo"
	"github.com/Skotchmaster/epinhell/internal/transport"
)

type sentEvent struct {
	Topic string
	Key   string
	Body  map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sentEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, _ := event.(map[string]any)
	p.events = append(p.events, sentEvent{Topic: topic, Key: key, Body: body})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Body["type"].(string))
	}
	return out
}

type testServices struct {
	Repo    *repo.GormRepo
	Events  *fakePublisher
	Catalog *CatalogService
	Cart    *CartService
	Auth    *AuthService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	r := repo.New(db.OpenTest(t))
	ev := &fakePublisher{}
	return &testServices{
		Repo:    r,
		Events:  ev,
		Catalog: &CatalogService{Repo: r, Events: ev},
		Cart:    &CartService{Repo: r, Products: r, Events: ev},
		Auth: &AuthService{
			Repo:          r,
			AccessSecret:  []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			Events:        ev,
		},
	}
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func transportProduct(name string, p *decimal.Decimal) transport.ProductRequest {
	return transport.ProductRequest{Name: name, Price: p}
}

func (ts *testServices) product(t *testing.T, name, p string) uint {
	t.Helper()
	prod, err := ts.Catalog.CreateProduct(context.Background(), transport.ProductRequest{Name: name, Price: price(p)})
	require.NoError(t, err)
	return prod.ID
}
