package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/epinhell/internal/logging"
	"github.com/Skotchmaster/epinhell/internal/models"
	"github.com/Skotchmaster/epinhell/internal/mykafka"
	"github.com/Skotchmaster/epinhell/internal/transport"
)

type CatalogRepo interface {
	CreateProduct(ctx context.Context, prod *models.Product) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	UpdateProductVersioned(ctx context.Context, prod *models.Product, expectedVersion uint) (int64, error)
	ProductExists(ctx context.Context, id uint) (bool, error)
	DeleteProduct(ctx context.Context, id uint) error
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
}

// ProductIndexer is the optional full-text mirror of the catalog.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, prod *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo   CatalogRepo
	Events mykafka.Publisher
	Index  ProductIndexer
}

func checkName(name string, verr *ValidationError) {
	if strings.TrimSpace(name) == "" {
		verr.add("name", "is required")
	}
}

func checkPrice(price *decimal.Decimal, verr *ValidationError) {
	if price == nil {
		verr.add("price", "is required")
		return
	}
	if price.IsNegative() {
		verr.add("price", "must not be negative")
	}
}

func collect(err error) (*ValidationError, error) {
	if err == nil {
		return &ValidationError{}, nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, nil
	}
	return nil, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	verr, err := collect(Validate(req))
	if err != nil {
		return nil, err
	}
	checkName(req.Name, verr)
	checkPrice(req.Price, verr)
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	prod := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price.Round(2),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Version:     1,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterWrite(ctx, "product_created", prod)
	return prod, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return prod, err
}

// UpdateProduct overwrites every mutable field. req.Version, when set, pins the
// version the caller last saw.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest) (*models.Product, error) {
	verr, err := collect(Validate(req))
	if err != nil {
		return nil, err
	}
	checkName(req.Name, verr)
	checkPrice(req.Price, verr)
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	prod, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := prod.Version
	if req.Version != nil {
		expected = *req.Version
	}

	prod.Name = strings.TrimSpace(req.Name)
	prod.Price = req.Price.Round(2)
	prod.Description = req.Description
	prod.ImageURL = req.ImageURL

	return s.saveVersioned(ctx, prod, expected)
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	verr, err := collect(Validate(req))
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		checkName(*req.Name, verr)
	}
	if req.Price != nil && req.Price.IsNegative() {
		verr.add("price", "must not be negative")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	prod, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := prod.Version
	if req.Version != nil {
		expected = *req.Version
	}

	if req.Name != nil {
		prod.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		prod.Price = req.Price.Round(2)
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.ImageURL != nil {
		prod.ImageURL = *req.ImageURL
	}

	return s.saveVersioned(ctx, prod, expected)
}

func (s *CatalogService) saveVersioned(ctx context.Context, prod *models.Product, expected uint) (*models.Product, error) {
	n, err := s.Repo.UpdateProductVersioned(ctx, prod, expected)
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w", prod.ID, err)
	}
	if n == 0 {
		exists, err := s.Repo.ProductExists(ctx, prod.ID)
		if err != nil {
			return nil, fmt.Errorf("update product %d: %w", prod.ID, err)
		}
		if !exists {
			return nil, fmt.Errorf("product %d vanished during update: %w", prod.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("product %d was modified concurrently: %w", prod.ID, ErrConflict)
	}

	updated, err := s.GetProduct(ctx, prod.ID)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_updated", updated)
	return updated, nil
}

// DeleteProduct is idempotent: deleting a missing product succeeds.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProductEvents, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

// SearchProducts prefers the search index and falls back to the database.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}

	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) afterWrite(ctx context.Context, eventType string, prod *models.Product) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "product_id", prod.ID, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProductEvents, strconv.FormatUint(uint64(prod.ID), 10), map[string]any{
		"type":      eventType,
		"productID": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price.StringFixed(2),
		"version":   prod.Version,
	})
}
