package repos

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"homeshop/internal/domain"
)

const tsLayout = "2006-01-02 15:04:05.000000"

func now() string { return time.Now().UTC().Format(tsLayout) }

// notFound maps sql.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// duplicate turns a UNIQUE constraint failure into *domain.DuplicateError
// naming the offending column. Other errors pass through.
func duplicate(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	const marker = "UNIQUE constraint failed: "
	msg := se.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return err
	}
	col := msg[i+len(marker):]
	if name, ok := strings.CutPrefix(col, "index '"); ok {
		// expression indexes are named idx_<table>_<column>
		name, _, _ = strings.Cut(name, "'")
		col = name[strings.LastIndexByte(name, '_')+1:]
		return &domain.DuplicateError{Field: col}
	}
	if j := strings.IndexAny(col, " ,("); j >= 0 {
		col = col[:j]
	}
	if j := strings.LastIndexByte(col, '.'); j >= 0 {
		col = col[j+1:]
	}
	return &domain.DuplicateError{Field: col}
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: pragmas stick, ":memory:" stays a single database, and
	// writers are serialized by the pool instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// idempotent; safe to run every start
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- One table per product kind; common columns first, then the kind's own.
CREATE TABLE IF NOT EXISTS refrigerators(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  image TEXT,
  volume_l INTEGER,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS washers(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  image TEXT,
  max_load_kg NUMERIC,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS dishwashers(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  image TEXT,
  place_settings INTEGER,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Users, sessions, customers
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username));
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT ''
);

-- Carts
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  owner_id TEXT NULL REFERENCES customers(id) ON DELETE CASCADE,
  in_order INTEGER NOT NULL DEFAULT 0,
  for_anonymous_user INTEGER NOT NULL DEFAULT 0,
  total_products INTEGER NOT NULL DEFAULT 0,
  final_price NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT,
  updated_at TEXT
);
-- at most one active cart per customer
CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_open_owner ON carts(owner_id) WHERE in_order = 0;

CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  customer_id TEXT NULL REFERENCES customers(id) ON DELETE CASCADE,
  kind TEXT NOT NULL CHECK (kind IN ('refrigerator','washer','dishwasher')),
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL DEFAULT 1 CHECK (qty >= 1),
  final_price NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT,
  updated_at TEXT,
  UNIQUE (cart_id, customer_id, kind, product_id)
);
CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  cart_id TEXT NULL UNIQUE REFERENCES carts(id) ON DELETE SET NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  buying_type TEXT NOT NULL CHECK (buying_type IN ('self','delivery')),
  order_date TEXT NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS customer_orders(
  customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  PRIMARY KEY (customer_id, order_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name,slug) VALUES
	  ('cat-refrigerators','Refrigerators','refrigerators'),
	  ('cat-washers','Washing machines','washers'),
	  ('cat-dishwashers','Dishwashers','dishwashers')`)

	tx.MustExec(`INSERT INTO refrigerators(id,category_id,title,slug,description,price,image,volume_l,created_at) VALUES
	  ('rf-1','cat-refrigerators','Fridge X1','fridge-x1','Two-door no-frost refrigerator',500,'products/fridge-x1.jpg',320,'2024-01-01 10:00:00.000000'),
	  ('rf-2','cat-refrigerators','Fridge Compact C2','fridge-c2','Under-counter refrigerator',289.90,'products/fridge-c2.jpg',120,'2024-01-02 10:00:00.000000')`)

	tx.MustExec(`INSERT INTO washers(id,category_id,title,slug,description,price,image,max_load_kg,created_at) VALUES
	  ('wm-1','cat-washers','Washer W7','washer-w7','Front-loading washer, 1400 rpm',349.00,'products/washer-w7.jpg',7,'2024-01-01 11:00:00.000000'),
	  ('wm-2','cat-washers','Washer Slim S6','washer-s6','Narrow front-loading washer',299.50,'products/washer-s6.jpg',6.5,'2024-01-02 11:00:00.000000')`)

	tx.MustExec(`INSERT INTO dishwashers(id,category_id,title,slug,description,price,image,place_settings,created_at) VALUES
	  ('dw-1','cat-dishwashers','Dishwasher D12','dishwasher-d12','Full-size built-in dishwasher',420.00,'products/dishwasher-d12.jpg',12,'2024-01-01 12:00:00.000000'),
	  ('dw-2','cat-dishwashers','Dishwasher Mini','dishwasher-mini','Countertop dishwasher',259.00,'products/dishwasher-mini.jpg',6,'2024-01-02 12:00:00.000000')`)

	return tx.Commit()
}

// seedUsers ensures the demo accounts exist (idempotent). "staff" has no
// customer profile.
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Username, Email, First, Last, Hash string
	}
	mk := func(id, username, email, first, last, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Username: username, Email: email, First: first, Last: last, Hash: string(h)}
	}
	users := []u{
		mk("u-alice", "alice", "alice@homeshop.test", "Alice", "Smith", "Passw0rd!"),
		mk("u-bob", "bob", "bob@homeshop.test", "Bob", "Jones", "Passw0rd!"),
		mk("u-staff", "staff", "staff@homeshop.test", "Sam", "Staff", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,username,email,first_name,last_name,password_hash)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT DO NOTHING
		`, x.ID, x.Username, x.Email, x.First, x.Last, x.Hash); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`
		INSERT INTO customers(id,user_id,phone,address) VALUES
		  ('cu-alice','u-alice','+1 555 0100','1 Main St, Springfield'),
		  ('cu-bob','u-bob','+1 555 0101','2 Oak Ave, Springfield')
		ON CONFLICT DO NOTHING
	`); err != nil {
		return err
	}
	return tx.Commit()
}

// Repos groups the repositories bound to one handle: the pool, or a
// transaction inside Store.WithinTx.
type Repos struct {
	Categories *CategoryRepo
	Products   *ProductRepo
	Users      *UserRepo
	Customers  *CustomerRepo
	Carts      *CartRepo
	Orders     *OrderRepo
}

func NewRepos(db sqlx.ExtContext) *Repos {
	return &Repos{
		Categories: NewCategoryRepo(db),
		Products:   NewProductRepo(db),
		Users:      NewUserRepo(db),
		Customers:  NewCustomerRepo(db),
		Carts:      NewCartRepo(db),
		Orders:     NewOrderRepo(db),
	}
}

type Store struct {
	*Repos
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{Repos: NewRepos(db), db: db}
}

func (s *Store) DB() *sqlx.DB { return s.db }

// WithinTx runs fn against repos bound to a single transaction. It commits
// when fn returns nil and rolls back otherwise. fn must not use the Store's
// own repos: the pool has one connection and the transaction holds it.
func (s *Store) WithinTx(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
