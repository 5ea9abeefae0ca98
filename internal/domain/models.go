package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Slug      string `db:"slug"`
	CreatedAt string `db:"created_at"`
}

func (c Category) URL() string { return "/" + c.Slug + "/" }

// CategoryCount is a sidebar entry.
type CategoryCount struct {
	Category
	Count int
}

type Product struct {
	ID          string          `db:"id"`
	Kind        Kind            `db:"kind"`
	CategoryID  string          `db:"category_id"`
	Title       string          `db:"title"`
	Slug        string          `db:"slug"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	Spec        string          `db:"spec"`
	CreatedAt   string          `db:"created_at"`
}

func (p Product) Info() KindInfo {
	info, _ := LookupKind(string(p.Kind))
	return info
}

func (p Product) URL() string {
	return "/" + p.Info().CategorySlug + "/" + p.Slug + "/"
}

func (p Product) AddURL() string {
	return "/cart/add/" + string(p.Kind) + "/" + p.Slug + "/"
}
