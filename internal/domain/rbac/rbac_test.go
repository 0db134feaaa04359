package rbac

import "testing"

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{"пустой набор", nil, ""},
		{"одна роль", []string{RoleReceiver}, RoleReceiver},
		{"receiver и recycler", []string{RoleReceiver, RoleRecycler}, RoleRecycler},
		{"admin побеждает", []string{RoleUser, RoleAdmin, RoleReceiver}, RoleAdmin},
		{"неизвестная роль проигрывает", []string{"guest", RoleUser}, RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestRole(tt.roles); got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestMapGroupsToRole(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{"без групп", nil, ""},
		{"keycloak путь", []string{"/receivers"}, RoleReceiver},
		{"имя роли", []string{"recycler"}, RoleRecycler},
		{"регистр не важен", []string{"/Admins"}, RoleAdmin},
		{"неизвестные группы", []string{"/staff", "/drivers"}, ""},
		{"максимум из нескольких", []string{"/users", "/receivers", "/staff"}, RoleReceiver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapGroupsToRole(tt.groups); got != tt.want {
				t.Errorf("MapGroupsToRole(%v) = %q, хотели %q", tt.groups, got, tt.want)
			}
		})
	}
}

func TestResolveRole(t *testing.T) {
	if got := ResolveRole("receiver", []string{"/admins"}); got != RoleReceiver {
		t.Errorf("claim должен иметь приоритет, получено %q", got)
	}
	if got := ResolveRole("  ", []string{"/recyclers"}); got != RoleRecycler {
		t.Errorf("пустой claim → группы, получено %q", got)
	}
	if got := ResolveRole("", nil); got != "" {
		t.Errorf("ни claim, ни групп → пусто, получено %q", got)
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []string{RoleUser, RoleReceiver, RoleRecycler, RoleAdmin} {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	for _, r := range []string{"", "readonly", "Receiver"} {
		if IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = true", r)
		}
	}
}
