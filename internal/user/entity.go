// AngelaMos | 2026
// entity.go

package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/storefront/internal/core"
)

// Role is the closed set of storefront roles. Every shopper starts as a
// customer; only admins may touch the catalog.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts a role name case-insensitively. The empty string and
// anything outside the set wrap core.ErrInvalidInput.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("role %q: %w", s, core.ErrInvalidInput)
	}
}

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
