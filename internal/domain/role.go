package domain

import (
	"fmt"
	"strings"
)

// Role identifies which of the three marketplace participants a caller is.
type Role string

const (
	RoleFarmer    Role = "farmer"
	RolePG        Role = "pg"
	RoleMiddleman Role = "middleman"
)

var Roles = []Role{RoleFarmer, RolePG, RoleMiddleman}

func (r Role) IsValid() bool {
	switch r {
	case RoleFarmer, RolePG, RoleMiddleman:
		return true
	}
	return false
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return r, nil
}
