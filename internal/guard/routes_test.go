package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		path string
		name string
	}{
		{"/", "Root"},
		{"/login", "Login"},
		{"/dashboard", "Dashboard"},
		{"/dashboard/activities", "Activities"},
		{"/dashboard/activities/42", "ActivityDetail"},
		{"/dashboard/transfers/tr-9", "TransferDetail"},
		{"/admin/users", "UserManagement"},
		{"/no-such-page", "NotFound"},
		{"/dashboard/activities/7/extra", "NotFound"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.name, Lookup(tt.path).Name)
		})
	}
}

func TestLookup_TrailingSlash(t *testing.T) {
	assert.Equal(t, "Dashboard", Lookup("/dashboard/").Name)
}

func TestRoutes_AdminTreeRequiresAuth(t *testing.T) {
	for _, r := range Routes {
		if r.RequiresAdmin {
			assert.True(t, r.RequiresAuth, r.Path)
		}
	}
}
