package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"homeshop/internal/domain"
	"homeshop/internal/repos"
)

const (
	LatestPerKind   = 5
	DefaultPageSize = 12
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// Categories returns the sidebar: every category with its product count.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CategoryCount, 0, len(cats))
	for _, c := range cats {
		cc := domain.CategoryCount{Category: c}
		if k, ok := domain.KindForCategory(c.Slug); ok {
			if cc.Count, err = s.Prods.Count(ctx, k); err != nil {
				return nil, err
			}
		}
		out = append(out, cc)
	}
	return out, nil
}

// Category resolves a category slug together with the kind it lists.
func (s *CatalogService) Category(ctx context.Context, slug string) (domain.Category, domain.KindInfo, error) {
	k, ok := domain.KindForCategory(slug)
	if !ok {
		return domain.Category{}, domain.KindInfo{}, fmt.Errorf("category %q: %w", slug, domain.ErrNotFound)
	}
	c, err := s.Cats.BySlug(ctx, slug)
	if err != nil {
		return domain.Category{}, domain.KindInfo{}, fmt.Errorf("category %q: %w", slug, err)
	}
	return c, k, nil
}

func (s *CatalogService) ProductsInCategory(ctx context.Context, k domain.KindInfo, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return s.Prods.ListByKind(ctx, k, pageSize, (page-1)*pageSize)
}

// Product looks a product up by the category slug it is listed under.
func (s *CatalogService) Product(ctx context.Context, categorySlug, slug string) (domain.Product, error) {
	k, ok := domain.KindForCategory(categorySlug)
	if !ok {
		return domain.Product{}, fmt.Errorf("category %q: %w", categorySlug, domain.ErrNotFound)
	}
	return s.product(ctx, k, slug)
}

// ProductByKind looks a product up by its kind tag, as cart URLs carry it.
func (s *CatalogService) ProductByKind(ctx context.Context, kindTag, slug string) (domain.Product, error) {
	k, ok := domain.LookupKind(kindTag)
	if !ok {
		return domain.Product{}, fmt.Errorf("kind %q: %w", kindTag, domain.ErrNotFound)
	}
	return s.product(ctx, k, slug)
}

func (s *CatalogService) product(ctx context.Context, k domain.KindInfo, slug string) (domain.Product, error) {
	p, err := s.Prods.BySlug(ctx, k, slug)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s %q: %w", k.Kind, slug, err)
	}
	return p, nil
}

// Latest returns the newest perKind products of every kind. Products of
// first are listed ahead of the others; the rest keep registry order.
func (s *CatalogService) Latest(ctx context.Context, perKind int, first domain.Kind) ([]domain.Product, error) {
	if perKind <= 0 {
		perKind = LatestPerKind
	}
	var out []domain.Product
	for _, k := range domain.Kinds() {
		ps, err := s.Prods.ListByKind(ctx, k, perKind, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	if first != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Kind == first && out[j].Kind != first
		})
	}
	return out, nil
}

// Search expects a query already checked by validate.Q.
func (s *CatalogService) Search(ctx context.Context, q string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return s.Prods.Search(ctx, strings.ToLower(q), pageSize, (page-1)*pageSize)
}
