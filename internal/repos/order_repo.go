package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"homeshop/internal/domain"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `o.id, o.customer_id, COALESCE(o.cart_id,'') AS cart_id, o.first_name, o.last_name,
	o.phone, o.address, o.buying_type, o.order_date, o.comment, o.created_at,
	COALESCE(c.total_products, 0) AS total_products, COALESCE(c.final_price, 0) AS final_price`

// Create inserts the order header. The cart is linked separately. Empty id
// and created_at are filled in.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt == "" {
		o.CreatedAt = now()
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, customer_id, first_name, last_name, phone, address, buying_type, order_date, comment, created_at)
	  VALUES
	    (?,  ?,           ?,          ?,         ?,     ?,       ?,           ?,          ?,       ?)
	`, o.ID, o.CustomerID, o.FirstName, o.LastName, o.Phone, o.Address, string(o.BuyingType), o.OrderDate, o.Comment, o.CreatedAt)
	return err
}

func (r *OrderRepo) LinkCart(ctx context.Context, orderID, cartID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET cart_id = ? WHERE id = ?`, cartID, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AttachToCustomer adds the order to the customer's history.
func (r *OrderRepo) AttachToCustomer(ctx context.Context, customerID, orderID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO customer_orders(customer_id, order_id) VALUES(?, ?)`, customerID, orderID)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, r.db, &o, `
		SELECT `+orderCols+`
		FROM orders o
		LEFT JOIN carts c ON c.id = o.cart_id
		WHERE o.id = ?
	`, orderID)
	return o, notFound(err)
}

// ListByCustomer returns the customer's order history, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+orderCols+`
		FROM customer_orders co
		JOIN orders o ON o.id = co.order_id
		LEFT JOIN carts c ON c.id = o.cart_id
		WHERE co.customer_id = ?
		ORDER BY o.created_at DESC, o.rowid DESC
	`, customerID)
	return out, err
}
