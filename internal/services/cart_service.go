package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"homeshop/internal/domain"
	"homeshop/internal/repos"
)

// CartService owns the active cart of a customer. Every mutation runs in a
// transaction that ends with a recalculation of the cart aggregates.
type CartService struct {
	Store   *repos.Store
	Catalog *CatalogService
}

func NewCartService(store *repos.Store, catalog *CatalogService) *CartService {
	return &CartService{Store: store, Catalog: catalog}
}

// Resolve returns the user's active cart, creating it if needed. Anonymous
// visitors and users without a customer profile get a nil cart.
func (s *CartService) Resolve(ctx context.Context, u *domain.User) (*domain.Cart, error) {
	if u == nil {
		return nil, nil
	}
	cu, err := s.Store.Customers.CustomerByUser(ctx, u.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, err := s.Store.Carts.EnsureOpen(ctx, cu.ID)
	if err != nil {
		return nil, fmt.Errorf("open cart for %s: %w", cu.ID, err)
	}
	return s.load(ctx, c)
}

// View reloads a cart with its lines.
func (s *CartService) View(ctx context.Context, cartID string) (*domain.Cart, error) {
	c, err := s.Store.Carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, c)
}

// Add puts one unit of the product into the cart. Adding a product that is
// already there leaves its quantity alone.
func (s *CartService) Add(ctx context.Context, cart *domain.Cart, kindTag, slug string) (*domain.Cart, error) {
	p, err := s.Catalog.ProductByKind(ctx, kindTag, slug)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrAuthRequired
	}
	return s.mutate(ctx, cart, func(r *repos.Repos) error {
		_, err := r.Carts.GetOrCreateItem(ctx, cart.ID, cart.OwnerID, p.Kind, p.ID)
		return err
	})
}

func (s *CartService) Remove(ctx context.Context, cart *domain.Cart, kindTag, slug string) (*domain.Cart, error) {
	p, err := s.Catalog.ProductByKind(ctx, kindTag, slug)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrAuthRequired
	}
	return s.mutate(ctx, cart, func(r *repos.Repos) error {
		id, err := r.Carts.FindItem(ctx, cart.ID, cart.OwnerID, p.Kind, p.ID)
		if err != nil {
			return fmt.Errorf("line %s/%s: %w", p.Kind, p.Slug, err)
		}
		return r.Carts.DeleteItem(ctx, id)
	})
}

// ChangeQty sets a line's quantity from raw form input. Zero removes the
// line; anything that is not a non-negative integer is rejected.
func (s *CartService) ChangeQty(ctx context.Context, cart *domain.Cart, kindTag, slug, raw string) (*domain.Cart, error) {
	p, err := s.Catalog.ProductByKind(ctx, kindTag, slug)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrAuthRequired
	}
	qty, err := ParseQty(raw)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, cart, func(r *repos.Repos) error {
		id, err := r.Carts.FindItem(ctx, cart.ID, cart.OwnerID, p.Kind, p.ID)
		if err != nil {
			return fmt.Errorf("line %s/%s: %w", p.Kind, p.Slug, err)
		}
		if qty == 0 {
			return r.Carts.DeleteItem(ctx, id)
		}
		return r.Carts.SetItemQty(ctx, id, qty)
	})
}

// ParseQty accepts a base-10 integer between 0 and 999.
func ParseQty(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > 999 {
		return 0, fmt.Errorf("quantity %q: %w", raw, domain.ErrInvalidInput)
	}
	return n, nil
}

func (s *CartService) mutate(ctx context.Context, cart *domain.Cart, fn func(r *repos.Repos) error) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.Store.WithinTx(ctx, func(r *repos.Repos) error {
		cur, err := r.Carts.Get(ctx, cart.ID)
		if err != nil {
			return err
		}
		if cur.InOrder {
			return fmt.Errorf("cart %s is finalized: %w", cur.ID, domain.ErrNotFound)
		}
		if err := fn(r); err != nil {
			return err
		}
		out, err = recalc(ctx, r, cur)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recalc prices the cart's current lines and stores the aggregates.
func recalc(ctx context.Context, r *repos.Repos, c domain.Cart) (*domain.Cart, error) {
	lines, err := r.Carts.Lines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	lines, t := domain.Recalculate(lines)
	if err := r.Carts.SaveTotals(ctx, c.ID, lines, t); err != nil {
		return nil, err
	}
	c.Lines = lines
	c.TotalProducts = t.Qty
	c.FinalPrice = t.Price
	return &c, nil
}

func (s *CartService) load(ctx context.Context, c domain.Cart) (*domain.Cart, error) {
	lines, err := s.Store.Carts.Lines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines
	return &c, nil
}
