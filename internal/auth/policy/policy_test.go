package policy

import "testing"

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		name      string
		userRoles []string
		required  []Role
		want      bool
	}{
		{"admin on validator endpoint", []string{"admin"}, []Role{RoleAdmin, RoleValidator}, true},
		{"validator on validator endpoint", []string{"validator"}, []Role{RoleAdmin, RoleValidator}, true},
		{"agent on validator endpoint", []string{"agent"}, []Role{RoleAdmin, RoleValidator}, false},
		{"viewer on creation endpoint", []string{"viewer"}, []Role{RoleAdmin, RoleAgent}, false},
		{"multiple roles, one matches", []string{"viewer", "agent"}, []Role{RoleAgent}, true},
		{"no roles", nil, []Role{RoleAdmin}, false},
		{"empty required set denies", []string{"admin"}, nil, false},
		{"unknown role string", []string{"superuser"}, []Role{RoleAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthorized(tt.userRoles, tt.required...); got != tt.want {
				t.Fatalf("IsAuthorized(%v, %v) = %v, want %v", tt.userRoles, tt.required, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleValidator, RoleAgent, RoleViewer} {
		if !r.Valid() {
			t.Errorf("expected role %q to be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}
