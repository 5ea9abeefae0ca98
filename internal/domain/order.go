package domain

import "github.com/shopspring/decimal"

type BuyingType string

const (
	BuyingSelf     BuyingType = "self"
	BuyingDelivery BuyingType = "delivery"
)

func (b BuyingType) Label() string {
	switch b {
	case BuyingSelf:
		return "In-store pickup"
	case BuyingDelivery:
		return "Delivery"
	}
	return string(b)
}

// Order is created once, when its cart is finalized. No later states exist.
type Order struct {
	ID         string     `db:"id"`
	CustomerID string     `db:"customer_id"`
	CartID     string     `db:"cart_id"`
	FirstName  string     `db:"first_name"`
	LastName   string     `db:"last_name"`
	Phone      string     `db:"phone"`
	Address    string     `db:"address"`
	BuyingType BuyingType `db:"buying_type"`
	OrderDate  string     `db:"order_date"`
	Comment    string     `db:"comment"`
	CreatedAt  string     `db:"created_at"`

	// Read from the linked cart.
	TotalProducts int             `db:"total_products"`
	FinalPrice    decimal.Decimal `db:"final_price"`
}
