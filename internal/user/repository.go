// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role Role) (*User, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

type repository struct {
	db      core.DBTX
	timeout time.Duration
}

// NewRepository returns the Postgres account store. Each statement runs
// under timeout; a duplicate email surfaces as core.ErrDuplicateKey and
// connection trouble as an upstream error.
func NewRepository(db core.DBTX, timeout time.Duration) Repository {
	return &repository{db: db, timeout: timeout}
}

const selectUser = `SELECT id, email, password_hash, name, role, created_at, updated_at FROM users`

func (r *repository) Create(ctx context.Context, u *User) error {
	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)

	return core.StoreError("create user", err)
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", selectUser+` WHERE id = $1`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "get user by email", selectUser+` WHERE email = $1`, email)
}

func (r *repository) UpdateRole(ctx context.Context, id string, role Role) (*User, error) {
	return r.getOne(ctx, "update role", `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, password_hash, name, role, created_at, updated_at`,
		id, role)
}

func (r *repository) getOne(ctx context.Context, op, query string, args ...any) (*User, error) {
	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	var u User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		return nil, core.StoreError(op, err)
	}
	return &u, nil
}

// UpdatePassword stores a rehashed password after a login upgraded it.
func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return core.StoreError("update password", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		if err == nil {
			err = core.ErrNotFound
		}
		return core.StoreError("update password", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	params.Normalize()
	where, args := listFilter(params)

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, core.StoreError("count users", err)
	}

	query := fmt.Sprintf(`%s%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		selectUser, where, len(args)+1, len(args)+2)

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query,
		append(args, params.PageSize, params.Offset())...); err != nil {
		return nil, 0, core.StoreError("list users", err)
	}

	return users, total, nil
}

// listFilter builds the WHERE clause for an account listing. Search
// matches a substring of email or name with LIKE metacharacters escaped.
func listFilter(p ListUsersParams) (string, []any) {
	var conds []string
	var args []any

	if p.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(p.Search)+"%")
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if p.Role != "" {
		args = append(args, p.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
