package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"homeshop/internal/domain"
)

// CustomerRepo owns the shopper profile attached to a user account.
type CustomerRepo struct{ db sqlx.ExtContext }

func NewCustomerRepo(db sqlx.ExtContext) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO customers(id,user_id,phone,address) VALUES(?,?,?,?)`,
		c.ID, c.UserID, c.Phone, c.Address)
	return err
}

func (r *CustomerRepo) CustomerByUser(ctx context.Context, userID string) (*domain.Customer, error) {
	var c domain.Customer
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT id,user_id,phone,address FROM customers WHERE user_id=?`, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}
