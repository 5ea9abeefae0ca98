package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeshop/internal/domain"
	"homeshop/internal/services"
)

func registration() services.RegistrationForm {
	return services.RegistrationForm{
		Username:  "carol",
		Email:     "carol@homeshop.test",
		FirstName: "Carol",
		LastName:  "White",
		Password:  "Str0ng!pass",
		Confirm:   "Str0ng!pass",
		Phone:     "+1 555 0199",
		Address:   "3 Elm St, Springfield",
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.auth.Login(ctx, "sid-a", "alice", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", u.ID)

	cur, err := e.auth.CurrentUser(ctx, "sid-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", cur.Username)

	require.NoError(t, e.auth.Logout(ctx, "sid-a"))
	_, err = e.auth.CurrentUser(ctx, "sid-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoginBadCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Login(ctx, "sid-b", "alice", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = e.auth.Login(ctx, "sid-b", "nobody", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = e.auth.Login(ctx, "sid-b", "", "")
	assert.ErrorIs(t, err, services.ErrBadCreds)
}

func TestRegisterCreatesCustomerAndQueuesMail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.auth.Register(ctx, "sid-c", registration())
	require.NoError(t, err)
	assert.Equal(t, "Carol White", u.FullName())

	cur, err := e.auth.CurrentUser(ctx, "sid-c")
	require.NoError(t, err)
	assert.Equal(t, u.ID, cur.ID)

	cu, err := e.store.Customers.CustomerByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "+1 555 0199", cu.Phone)

	// a registered user shops right away
	cart, err := e.carts.Resolve(ctx, u)
	require.NoError(t, err)
	require.NotNil(t, cart)

	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, "carol@homeshop.test", e.mailer.sent[0].To)

	_, err = e.auth.Login(ctx, "sid-d", "carol", "Str0ng!pass")
	assert.NoError(t, err)
}

func TestRegisterSurvivesFullMailQueue(t *testing.T) {
	e := newEnv(t)
	e.mailer.full = true

	_, err := e.auth.Register(context.Background(), "sid-e", registration())
	require.NoError(t, err)
	assert.Empty(t, e.mailer.sent)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	f := registration()
	f.Username = "alice"
	f.Email = "ALICE@homeshop.test"
	_, err := e.auth.Register(ctx, "sid-f", f)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "username")
	assert.Contains(t, ve.Fields, "email")

	f = registration()
	f.Confirm = "different"
	f.Password = "weak"
	f.Address = ""
	_, err = e.auth.Register(ctx, "sid-f", f)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")
	assert.Contains(t, ve.Fields, "confirm_password")
	assert.Contains(t, ve.Fields, "address")

	var n int
	require.NoError(t, e.store.DB().Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 3, n)
	assert.Empty(t, e.mailer.sent)
}

func TestRegisterLosingInsertIsValidationError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// another registration takes the username between the checks and the insert
	_, err := e.store.DB().Exec(`
		CREATE TRIGGER take_username BEFORE INSERT ON users
		WHEN NEW.username = 'carol' AND NEW.id <> 'u-winner'
		BEGIN
			INSERT INTO users(id,username,email,first_name,last_name,password_hash)
			VALUES('u-winner','carol','winner@example.com','W','W','x');
		END`)
	require.NoError(t, err)

	_, err = e.auth.Register(ctx, "sid-race", registration())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "This username is taken", ve.Fields["username"])
	assert.Empty(t, e.mailer.sent)

	var n int
	require.NoError(t, e.store.DB().Get(&n, `SELECT COUNT(*) FROM customers`))
	assert.Equal(t, 2, n)
}

func TestRegisterConcurrentSameUsername(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := registration()
			f.Email = fmt.Sprintf("carol%d@homeshop.test", i)
			_, errs[i] = e.auth.Register(ctx, fmt.Sprintf("sid-%d", i), f)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "username")
	}
	assert.Equal(t, 1, ok)
}
