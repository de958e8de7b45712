package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// UserRepo manages operator logins.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// CreateUser inserts u with a normalised email and returns the stored row.
// A taken email yields ErrDuplicate.
func (r *UserRepo) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO users (account_id, email, password_hash, role, is_active) VALUES (?,?,?,?,?)",
		u.AccountID, u.Email, u.PasswordHash, u.Role, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetUserByID(ctx, uint64(id))
}

const userColumns = "id,account_id,email,password_hash,role,is_active,created_at,updated_at"

// GetUserByEmail fetches a user by normalised email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := conn(ctx, r.db).QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.AccountID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}
