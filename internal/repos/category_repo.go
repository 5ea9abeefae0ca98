package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"homeshop/internal/domain"
)

type CategoryRepo struct{ db sqlx.ExtContext }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT id, name, slug, COALESCE(created_at,'') AS created_at
	  FROM categories
	  ORDER BY name
	`)
	return out, err
}

func (r *CategoryRepo) BySlug(ctx context.Context, slug string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.db, &c, `
	  SELECT id, name, slug, COALESCE(created_at,'') AS created_at
	  FROM categories
	  WHERE slug = ?
	`, slug)
	return c, notFound(err)
}
