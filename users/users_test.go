package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-storefront/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	require.Equal(t, users.RoleAdmin, users.ParseRole("admin"))
	require.Equal(t, users.RoleManager, users.ParseRole(" MANAGER "))
	require.Equal(t, users.RoleCashier, users.ParseRole("CASHIER"))
	require.Equal(t, users.RoleCashier, users.ParseRole("CAJERO"))
	require.Equal(t, users.RoleCustomer, users.ParseRole(""))
	require.Equal(t, users.RoleCustomer, users.ParseRole("SUPERVISOR"))
}

func TestUserJSON(t *testing.T) {
	payload := `{"id":7,"username":"ana","email":"ana@example.com","first_name":"Ana","last_name":"Ruiz","role":"CAJERO","is_staff":false,"is_superuser":false}`

	var u users.User
	require.NoError(t, json.Unmarshal([]byte(payload), &u))
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, users.RoleCashier, u.Role)
	require.Equal(t, "Ana Ruiz", u.DisplayName())

	var noRole users.User
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"username":"x","role":null}`), &noRole))
	require.Equal(t, users.RoleCustomer, noRole.Role)
	require.Equal(t, "x", noRole.DisplayName())
}

func TestCapabilities(t *testing.T) {
	admin := &users.User{Role: users.RoleAdmin}
	staff := &users.User{Role: users.RoleCustomer, IsStaff: true}
	manager := &users.User{Role: users.RoleManager}
	cashier := &users.User{Role: users.RoleCashier}
	customer := &users.User{Role: users.RoleCustomer}

	tests := []struct {
		name       string
		capability users.Capability
		allowed    []*users.User
		denied     []*users.User
	}{
		{"IsAdmin", users.IsAdmin, []*users.User{admin, staff}, []*users.User{manager, cashier, customer, nil}},
		{"IsManagerOrAdmin", users.IsManagerOrAdmin, []*users.User{admin, manager}, []*users.User{cashier, customer, nil}},
		{"IsManagerOrCashierOrAdmin", users.IsManagerOrCashierOrAdmin, []*users.User{admin, manager, cashier}, []*users.User{customer, nil}},
		{"Authenticated", users.Authenticated, []*users.User{admin, customer}, []*users.User{nil}},
		{"AtLeastManager", users.AtLeast(users.RoleManager), []*users.User{admin, manager}, []*users.User{cashier, customer}},
		{"HasRoleCashier", users.HasRole(users.RoleCashier), []*users.User{cashier}, []*users.User{admin, manager}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, u := range tc.allowed {
				require.True(t, tc.capability.Allows(u), "%+v", u)
			}
			for _, u := range tc.denied {
				require.False(t, tc.capability.Allows(u), "%+v", u)
			}
		})
	}
}

func TestZeroCapabilityDenies(t *testing.T) {
	require.False(t, users.Capability{}.Allows(&users.User{Role: users.RoleAdmin}))
}

func TestLandingPath(t *testing.T) {
	require.Equal(t, "/admin/dashboard", users.LandingPath(&users.User{Role: users.RoleAdmin}))
	require.Equal(t, "/manager/dashboard", users.LandingPath(&users.User{Role: users.RoleManager}))
	require.Equal(t, "/cashier/orders", users.LandingPath(&users.User{Role: users.RoleCashier}))
	require.Equal(t, "/", users.LandingPath(&users.User{Role: users.RoleCustomer}))
	require.Equal(t, "/", users.LandingPath(nil))
}

func TestClone(t *testing.T) {
	u := &users.User{ID: 1, Username: "a"}
	c := u.Clone()
	c.Username = "b"
	require.Equal(t, "a", u.Username)
	require.Nil(t, (*users.User)(nil).Clone())
}
