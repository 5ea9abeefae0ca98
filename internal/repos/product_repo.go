package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"homeshop/internal/domain"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

// productSelect selects one kind's table in the shape of domain.Product.
// Table and column names come from the kind registry, never from input.
func productSelect(k domain.KindInfo) string {
	return fmt.Sprintf(`
	  SELECT '%s' AS kind, id, category_id, title, slug,
	         COALESCE(description,'') AS description, price, COALESCE(image,'') AS image,
	         COALESCE(CAST(%s AS TEXT),'') AS spec, COALESCE(created_at,'') AS created_at
	  FROM %s`, k.Kind, k.SpecColumn, k.Table)
}

// catalogUnion is every product of every kind as one relation.
func catalogUnion() string {
	parts := make([]string, 0, 3)
	for _, k := range domain.Kinds() {
		parts = append(parts, productSelect(k))
	}
	return strings.Join(parts, "\n  UNION ALL\n")
}

func (r *ProductRepo) BySlug(ctx context.Context, k domain.KindInfo, slug string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, productSelect(k)+` WHERE slug = ?`, slug)
	return p, notFound(err)
}

func (r *ProductRepo) ListByKind(ctx context.Context, k domain.KindInfo, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := sqlx.SelectContext(ctx, r.db, &out, productSelect(k)+`
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *ProductRepo) Count(ctx context.Context, k domain.KindInfo) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM `+k.Table)
	return n, err
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches q (already lower-cased) against titles and descriptions of
// every kind.
func (r *ProductRepo) Search(ctx context.Context, q string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	like := "%" + likeEscaper.Replace(q) + "%"
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT * FROM (`+catalogUnion()+`
	  ) p
	  WHERE LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\'
	  ORDER BY p.created_at DESC, p.id
	  LIMIT ? OFFSET ?`, like, like, limit, offset)
	return out, err
}
