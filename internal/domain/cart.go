package domain

import "github.com/shopspring/decimal"

// Cart is mutable while InOrder is false. Finalized carts stay attached to
// exactly one order.
type Cart struct {
	ID               string          `db:"id"`
	OwnerID          string          `db:"owner_id"`
	InOrder          bool            `db:"in_order"`
	ForAnonymousUser bool            `db:"for_anonymous_user"`
	TotalProducts    int             `db:"total_products"`
	FinalPrice       decimal.Decimal `db:"final_price"`
	CreatedAt        string          `db:"created_at"`

	Lines []CartLine `db:"-"`
}

// CartLine is a cart item joined with the product it references.
type CartLine struct {
	ID         string          `db:"id"`
	CartID     string          `db:"cart_id"`
	CustomerID string          `db:"customer_id"`
	Kind       Kind            `db:"kind"`
	ProductID  string          `db:"product_id"`
	Qty        int             `db:"qty"`
	FinalPrice decimal.Decimal `db:"final_price"`

	Title     string          `db:"title"`
	Slug      string          `db:"slug"`
	Image     string          `db:"image"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

func (l CartLine) Product() Product {
	return Product{ID: l.ProductID, Kind: l.Kind, Title: l.Title, Slug: l.Slug, Image: l.Image, Price: l.UnitPrice}
}

func (l CartLine) RemoveURL() string {
	return "/cart/remove/" + string(l.Kind) + "/" + l.Slug + "/"
}

func (l CartLine) ChangeQtyURL() string {
	return "/cart/change-qty/" + string(l.Kind) + "/" + l.Slug + "/"
}

type Totals struct {
	Qty   int
	Price decimal.Decimal
}

// Recalculate prices every line at its current unit price and sums the cart.
// The input is not modified.
func Recalculate(lines []CartLine) ([]CartLine, Totals) {
	out := make([]CartLine, len(lines))
	t := Totals{Price: decimal.Zero}
	for i, l := range lines {
		l.FinalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
		out[i] = l
		t.Qty += l.Qty
		t.Price = t.Price.Add(l.FinalPrice)
	}
	return out, t
}
