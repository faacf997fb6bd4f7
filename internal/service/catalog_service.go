package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bkode/storefront/internal/cache"
	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/repository"
)

type CatalogService struct {
	products repository.ProductRepository
	cache    cache.ProductCache
	log      *slog.Logger
}

func NewCatalogService(products repository.ProductRepository, productCache cache.ProductCache, log *slog.Logger) *CatalogService {
	return &CatalogService{products: products, cache: productCache, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

// GetProduct reads through the product cache. Cache failures degrade to the
// repository, never to an error.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if s.cache != nil {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("product cache read failed", slog.Int64("product_id", id), slog.Any("err", err))
		}
	}

	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.log.Warn("product cache write failed", slog.Int64("product_id", id), slog.Any("err", err))
		}
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.log.Info("product created", slog.Int64("product_id", p.ID), slog.String("name", p.Name))
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, upd *domain.ProductUpdate) (*domain.Product, error) {
	product, err := s.products.UpdateProduct(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("product deleted", slog.Int64("product_id", id))
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("product cache invalidation failed", slog.Int64("product_id", id), slog.Any("err", err))
	}
}
