package services

import (
	"context"
	"errors"
	"fmt"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
	"homeshop/internal/repos"
	"homeshop/internal/validate"
)

// OrderForm is the checkout form as submitted. Names come from the account.
type OrderForm struct {
	Phone      string
	Address    string
	BuyingType string
	OrderDate  string
	Comment    string
}

// Validate checks every field and returns the cleaned values.
func (f OrderForm) Validate() (OrderForm, error) {
	var ve domain.ValidationError
	var ok bool
	if f.Phone, ok = validate.Phone(f.Phone); !ok {
		ve.Add("phone", "Enter a valid phone number")
	}
	bt, ok := validate.BuyingType(f.BuyingType)
	if !ok {
		ve.Add("buying_type", "Choose pickup or delivery")
	}
	f.BuyingType = string(bt)
	if f.OrderDate, ok = validate.Date(f.OrderDate); !ok {
		ve.Add("order_date", "Enter a date as YYYY-MM-DD")
	}
	if f.Comment, ok = validate.Comment(f.Comment); !ok {
		ve.Add("comment", "Comment is too long")
	}
	addr, ok := validate.Address(f.Address)
	switch {
	case ok:
		f.Address = addr
	case bt == domain.BuyingDelivery:
		ve.Add("address", "Delivery needs an address")
	case len(f.Address) > 1024:
		ve.Add("address", "Address is too long")
	default:
		f.Address = ""
	}
	return f, ve.OrNil()
}

type OrderService struct {
	Store *repos.Store
	Log   *applog.Logger
}

func NewOrderService(store *repos.Store, log *applog.Logger) *OrderService {
	return &OrderService{Store: store, Log: log}
}

// Place turns the user's active cart into an order. Validation and the
// customer lookup happen first; everything after runs in one transaction.
func (s *OrderService) Place(ctx context.Context, u *domain.User, cart *domain.Cart, form OrderForm) (domain.Order, error) {
	f, err := form.Validate()
	if err != nil {
		return domain.Order{}, err
	}
	if u == nil {
		return domain.Order{}, domain.ErrAuthRequired
	}
	cu, err := s.Store.Customers.CustomerByUser(ctx, u.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("customer for %s: %w", u.Username, err)
	}
	if cart == nil {
		return domain.Order{}, domain.ErrAuthRequired
	}

	o := domain.Order{
		CustomerID: cu.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      f.Phone,
		Address:    f.Address,
		BuyingType: domain.BuyingType(f.BuyingType),
		OrderDate:  f.OrderDate,
		Comment:    f.Comment,
	}
	err = s.Store.WithinTx(ctx, func(r *repos.Repos) error {
		cur, err := r.Carts.Get(ctx, cart.ID)
		if err != nil {
			return err
		}
		if cur.OwnerID != cu.ID || cur.InOrder {
			return fmt.Errorf("cart %s is not the active cart of %s: %w", cur.ID, cu.ID, domain.ErrNotFound)
		}
		priced, err := recalc(ctx, r, cur)
		if err != nil {
			return err
		}
		if priced.TotalProducts == 0 {
			ve := &domain.ValidationError{}
			ve.Add("cart", "Your cart is empty")
			return ve
		}
		if err := r.Orders.Create(ctx, &o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := r.Carts.MarkInOrder(ctx, cur.ID); err != nil {
			return fmt.Errorf("finalize cart: %w", err)
		}
		if err := r.Orders.LinkCart(ctx, o.ID, cur.ID); err != nil {
			return fmt.Errorf("link cart: %w", err)
		}
		if err := r.Orders.AttachToCustomer(ctx, cu.ID, o.ID); err != nil {
			return fmt.Errorf("attach order: %w", err)
		}
		o.CartID = cur.ID
		o.TotalProducts = priced.TotalProducts
		o.FinalPrice = priced.FinalPrice
		return nil
	})
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			s.Log.Error(nil, "order.place.rollback", err, map[string]any{"cart_id": cart.ID})
		}
		return domain.Order{}, err
	}
	return o, nil
}

// History lists the user's orders, newest first.
func (s *OrderService) History(ctx context.Context, u *domain.User) ([]domain.Order, error) {
	if u == nil {
		return nil, domain.ErrAuthRequired
	}
	cu, err := s.Store.Customers.CustomerByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("customer for %s: %w", u.Username, err)
	}
	return s.Store.Orders.ListByCustomer(ctx, cu.ID)
}
