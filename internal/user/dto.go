// AngelaMos | 2026
// dto.go

package user

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUserPage = 20
	maxUserPage     = 100
	maxSearchLen    = 100
)

type UpdateUserRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=customer admin"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListUsersParams filters the admin customer listing. An empty Role lists
// everyone.
type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Role     Role
}

// listParamsFromQuery reads page, page_size, search and role. Malformed
// numbers fall back to defaults; an unknown role is rejected.
func listParamsFromQuery(q url.Values) (ListUsersParams, error) {
	p := ListUsersParams{
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("page_size"), defaultUserPage),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if len(p.Search) > maxSearchLen {
		p.Search = p.Search[:maxSearchLen]
	}
	if raw := q.Get("role"); raw != "" {
		role, err := ParseRole(raw)
		if err != nil {
			return ListUsersParams{}, err
		}
		p.Role = role
	}
	p.Normalize()
	return p, nil
}

func (p *ListUsersParams) Normalize() {
	p.Page = max(p.Page, 1)
	if p.PageSize < 1 {
		p.PageSize = defaultUserPage
	}
	p.PageSize = min(p.PageSize, maxUserPage)
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func toResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toResponses(users []User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = toResponse(&users[i])
	}
	return out
}
