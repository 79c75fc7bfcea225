package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labportal/internal/fault"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleLabStaff Role = "lab_staff"
	RoleAdmin    Role = "lab_administrator"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	// UserType is the pricing tier (e.g. "internal", "academic", "industry").
	UserType string `json:"userType"`
	Active   bool   `json:"active"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	const q = `
SELECT id, email, COALESCE(name,''), role, user_type, active
FROM users
WHERE id = $1
`
	var u User
	if err := r.db.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.UserType, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("USER_NOT_FOUND", "user not found")
		}
		return nil, err
	}
	return &u, nil
}

// ListActiveAdminIDs is the notification broadcast list for admin-facing
// events. Recomputed per call so deactivated admins drop out immediately.
func (r *Repository) ListActiveAdminIDs(ctx context.Context) ([]string, error) {
	const q = `
SELECT id
FROM users
WHERE role = 'lab_administrator' AND active
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
