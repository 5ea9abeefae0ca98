package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
	"homeshop/internal/mail"
	"homeshop/internal/repos"
	"homeshop/internal/validate"
)

var ErrBadCreds = errors.New("invalid username or password")

// Notifier hands a message to background delivery without blocking.
type Notifier interface {
	Dispatch(m mail.Message) bool
}

type AuthService struct {
	Store  *repos.Store
	Mailer Notifier
	Log    *applog.Logger
	Cost   int
}

func NewAuthService(store *repos.Store, mailer Notifier, log *applog.Logger) *AuthService {
	return &AuthService{Store: store, Mailer: mailer, Log: log, Cost: 12}
}

func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.User, error) {
	username, ok := validate.Username(username)
	if !ok || password == "" {
		return nil, ErrBadCreds
	}
	u, err := s.Store.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Store.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Store.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Store.Users.SessionUser(ctx, sid)
}

type RegistrationForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Confirm   string
	Phone     string
	Address   string
}

func (f RegistrationForm) Validate() (RegistrationForm, error) {
	var ve domain.ValidationError
	var ok bool
	if f.Username, ok = validate.Username(f.Username); !ok {
		ve.Add("username", "Use 3-30 letters, digits or . _ -")
	}
	if f.Email, ok = validate.Email(f.Email); !ok {
		ve.Add("email", "Enter a valid email address")
	}
	if f.FirstName, ok = validate.Name(f.FirstName); !ok {
		ve.Add("first_name", "First name is required")
	}
	if f.LastName, ok = validate.Name(f.LastName); !ok {
		ve.Add("last_name", "Last name is required")
	}
	if !validate.Password(f.Password) {
		ve.Add("password", "Use 8-64 characters with upper and lower case letters, a digit and a symbol")
	}
	if f.Confirm != f.Password {
		ve.Add("confirm_password", "Passwords do not match")
	}
	if f.Phone, ok = validate.Phone(f.Phone); !ok {
		ve.Add("phone", "Enter a valid phone number")
	}
	if f.Address, ok = validate.Address(f.Address); !ok {
		ve.Add("address", "Address is required")
	}
	return f, ve.OrNil()
}

// Register creates the user and their customer profile, logs the session in
// and queues a welcome mail. A failed mail never fails the registration.
func (s *AuthService) Register(ctx context.Context, sid string, form RegistrationForm) (*domain.User, error) {
	f, err := form.Validate()
	if err != nil {
		return nil, err
	}
	var ve domain.ValidationError
	if _, err := s.Store.Users.ByUsername(ctx, f.Username); err == nil {
		ve.Add("username", "This username is taken")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.Store.Users.ByEmail(ctx, f.Email); err == nil {
		ve.Add("email", "This email is already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), s.Cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:        uuid.NewString(),
		Username:  f.Username,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Hash:      string(hash),
	}
	err = s.Store.WithinTx(ctx, func(r *repos.Repos) error {
		if err := r.Users.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return r.Customers.CreateCustomer(ctx, &domain.Customer{
			ID:      uuid.NewString(),
			UserID:  u.ID,
			Phone:   f.Phone,
			Address: f.Address,
		})
	})
	var dup *domain.DuplicateError
	if errors.As(err, &dup) {
		// lost a race with a concurrent registration
		switch dup.Field {
		case "email":
			ve.Add("email", "This email is already registered")
		default:
			ve.Add("username", "This username is taken")
		}
		return nil, &ve
	}
	if err != nil {
		return nil, err
	}
	if err := s.Store.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}

	if s.Mailer != nil && !s.Mailer.Dispatch(mail.Welcome(u.Email, u.FirstName, u.LastName)) {
		s.Log.Info(nil, "auth.register.mail_skipped", map[string]any{"user_id": u.ID})
	}
	return u, nil
}
