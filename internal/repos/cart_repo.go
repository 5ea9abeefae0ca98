package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"homeshop/internal/domain"
)

type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

const cartCols = `id, COALESCE(owner_id,'') AS owner_id, in_order, for_anonymous_user,
	total_products, final_price, COALESCE(created_at,'') AS created_at`

func (r *CartRepo) Get(ctx context.Context, cartID string) (domain.Cart, error) {
	var c domain.Cart
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT `+cartCols+` FROM carts WHERE id = ?`, cartID)
	return c, notFound(err)
}

// FindOpen returns the customer's active cart.
func (r *CartRepo) FindOpen(ctx context.Context, customerID string) (domain.Cart, error) {
	var c domain.Cart
	err := sqlx.GetContext(ctx, r.db, &c, `
	  SELECT `+cartCols+`
	  FROM carts
	  WHERE owner_id = ? AND in_order = 0`, customerID)
	return c, notFound(err)
}

// EnsureOpen returns the customer's active cart, creating an empty one if
// there is none. The partial unique index on carts(owner_id) turns a losing
// concurrent insert into a no-op, and the re-read returns the winner's row.
func (r *CartRepo) EnsureOpen(ctx context.Context, customerID string) (domain.Cart, error) {
	c, err := r.FindOpen(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Cart{}, err
	}
	ts := now()
	if _, err := r.db.ExecContext(ctx, `
	  INSERT INTO carts(id, owner_id, in_order, for_anonymous_user, total_products, final_price, created_at, updated_at)
	  VALUES(?, ?, 0, 0, 0, 0, ?, ?)
	  ON CONFLICT DO NOTHING`, uuid.NewString(), customerID, ts, ts); err != nil {
		return domain.Cart{}, err
	}
	return r.FindOpen(ctx, customerID)
}

// GetOrCreateItem inserts a line item with quantity 1 unless the same
// (cart, customer, kind, product) already exists. created reports which.
func (r *CartRepo) GetOrCreateItem(ctx context.Context, cartID, customerID string, kind domain.Kind, productID string) (created bool, err error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO cart_items(id, cart_id, customer_id, kind, product_id, qty, final_price, created_at, updated_at)
	  VALUES(?, ?, ?, ?, ?, 1, 0, ?, ?)
	  ON CONFLICT(cart_id, customer_id, kind, product_id) DO NOTHING`,
		uuid.NewString(), cartID, customerID, string(kind), productID, ts, ts)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FindItem returns the id of the line item for the given product.
func (r *CartRepo) FindItem(ctx context.Context, cartID, customerID string, kind domain.Kind, productID string) (string, error) {
	var id string
	err := sqlx.GetContext(ctx, r.db, &id, `
	  SELECT id FROM cart_items
	  WHERE cart_id = ? AND customer_id = ? AND kind = ? AND product_id = ?`,
		cartID, customerID, string(kind), productID)
	return id, notFound(err)
}

func (r *CartRepo) DeleteItem(ctx context.Context, itemID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepo) SetItemQty(ctx context.Context, itemID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET qty = ?, updated_at = ? WHERE id = ?`, qty, now(), itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Lines returns the cart's items joined with their products' current data.
func (r *CartRepo) Lines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	out := []domain.CartLine{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT ci.id, ci.cart_id, COALESCE(ci.customer_id,'') AS customer_id, ci.kind, ci.product_id,
	         ci.qty, ci.final_price, p.title, p.slug, p.image, p.price AS unit_price
	  FROM cart_items ci
	  JOIN (`+catalogUnion()+`
	  ) p ON p.kind = ci.kind AND p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at, ci.id`, cartID)
	return out, err
}

// SaveTotals stores recalculated line prices and cart aggregates.
func (r *CartRepo) SaveTotals(ctx context.Context, cartID string, lines []domain.CartLine, t domain.Totals) error {
	ts := now()
	for _, l := range lines {
		if _, err := r.db.ExecContext(ctx, `UPDATE cart_items SET final_price = ?, updated_at = ? WHERE id = ?`,
			l.FinalPrice, ts, l.ID); err != nil {
			return err
		}
	}
	_, err := r.db.ExecContext(ctx, `
	  UPDATE carts SET total_products = ?, final_price = ?, updated_at = ?
	  WHERE id = ?`, t.Qty, t.Price, ts, cartID)
	return err
}

// MarkInOrder finalizes an active cart. A cart that is missing or already
// finalized yields domain.ErrNotFound, which makes a double submit fail.
func (r *CartRepo) MarkInOrder(ctx context.Context, cartID string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE carts SET in_order = 1, updated_at = ?
	  WHERE id = ? AND in_order = 0`, now(), cartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
