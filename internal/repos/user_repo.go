package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"homeshop/internal/domain"
)

// UserRepo owns accounts and the sessions bound to them.
type UserRepo struct{ db sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

const userCols = `id,username,email,first_name,last_name,password_hash`

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE LOWER(username)=LOWER(?)`, username)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id,username,email,first_name,last_name,password_hash,created_at)
		VALUES(?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Hash, now())
	return duplicate(err)
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `
      SELECT u.id,u.username,u.email,u.first_name,u.last_name,u.password_hash
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
