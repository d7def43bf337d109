package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{path: "/reports", want: "View Reports", wantOK: true},
		{path: "/reports/", want: "View Reports", wantOK: true},
		{path: "/booking/create", want: "Create Booking", wantOK: true},
		{path: "/booking/edit/42", want: "Edit Booking", wantOK: true},
		{path: "/memberships/7/subscribers", want: "View Memberships", wantOK: true},
		{path: "/booking", wantOK: false},
		{path: "/login", wantOK: false},
		{path: "/", wantOK: false},
		{path: "/reportsx", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := RequiredPermission(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanAccess(t *testing.T) {
	perms := []string{"View Dashboard", "Edit Booking"}

	assert.True(t, CanAccess("/dashboard", perms))
	assert.True(t, CanAccess("/booking/edit/3", perms))
	assert.False(t, CanAccess("/booking/create", perms))
	assert.False(t, CanAccess("/reports", nil))
	assert.True(t, CanAccess("/login", nil))
}

func TestAllPermissions(t *testing.T) {
	all := AllPermissions()
	assert.Len(t, all, len(RoutePermissions))
	assert.IsNonDecreasing(t, all)
}
