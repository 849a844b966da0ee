package users

import "strings"

// Capability is a named predicate over a user deciding route eligibility.
// A nil user never satisfies a capability.
type Capability struct {
	Name  string
	allow func(u *User) bool
}

func NewCapability(name string, allow func(u *User) bool) Capability {
	return Capability{Name: name, allow: allow}
}

func (c Capability) Allows(u *User) bool {
	if u == nil || c.allow == nil {
		return false
	}
	return c.allow(u)
}

var roleLevels = map[RoleType]int{
	RoleAdmin:    3,
	RoleManager:  2,
	RoleCashier:  1,
	RoleCustomer: 0,
}

// Level is the role's position in the hierarchy ADMIN > MANAGER > CASHIER > CUSTOMER
func (r RoleType) Level() int {
	return roleLevels[r]
}

var (
	// Authenticated admits any signed in user
	Authenticated = NewCapability("authenticated user", func(*User) bool { return true })

	// IsAdmin admits administrators. Staff accounts are administrators whatever their role string.
	IsAdmin = NewCapability("ADMIN", func(u *User) bool {
		return u.Role == RoleAdmin || u.IsStaff
	})

	IsManagerOrAdmin = NewCapability("MANAGER or ADMIN", func(u *User) bool {
		return u.Role == RoleAdmin || u.Role == RoleManager
	})

	IsManagerOrCashierOrAdmin = NewCapability("CASHIER, MANAGER or ADMIN", func(u *User) bool {
		return u.Role == RoleAdmin || u.Role == RoleManager || u.Role == RoleCashier
	})
)

// HasRole admits users holding exactly one of roles
func HasRole(roles ...RoleType) Capability {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return NewCapability(strings.Join(names, " or "), func(u *User) bool {
		for _, r := range roles {
			if u.Role == r {
				return true
			}
		}
		return false
	})
}

// AtLeast admits users whose role is at or above min in the hierarchy
func AtLeast(min RoleType) Capability {
	return NewCapability(string(min)+" or above", func(u *User) bool {
		return u.Role.Level() >= min.Level()
	})
}

// LandingPath is where a user goes after signing in
func LandingPath(u *User) string {
	if u == nil {
		return "/"
	}
	switch u.Role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleManager:
		return "/manager/dashboard"
	case RoleCashier:
		return "/cashier/orders"
	default:
		return "/"
	}
}
