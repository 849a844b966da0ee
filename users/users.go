package users

import (
	"encoding/json"
	"strings"
)

// RoleType is the storefront role of a user
type RoleType string

const (
	RoleAdmin    RoleType = "ADMIN"    // Full control: users, products, categories, reports
	RoleManager  RoleType = "MANAGER"  // Dashboards, reports, predictions, customers, returns
	RoleCashier  RoleType = "CASHIER"  // Point of sale orders and sales history
	RoleCustomer RoleType = "CUSTOMER" // Shopper
)

// The backend reports cashiers as CAJERO
const roleCashierAlias = "CAJERO"

// ParseRole normalises a backend role string. Unknown or empty roles are customers.
func ParseRole(s string) RoleType {
	switch r := strings.ToUpper(strings.TrimSpace(s)); r {
	case string(RoleAdmin), string(RoleManager), string(RoleCashier):
		return RoleType(r)
	case roleCashierAlias:
		return RoleCashier
	default:
		return RoleCustomer
	}
}

func (r *RoleType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null or a non string role
		*r = RoleCustomer
		return nil
	}
	*r = ParseRole(s)
	return nil
}

type User struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Role      RoleType `json:"role"`
	IsStaff   bool     `json:"is_staff"`
}

// Clone returns a copy of u, nil safe
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
