package models

import "testing"

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		got, err := ParseRole(string(role))
		if err != nil {
			t.Errorf("ParseRole(%q): %v", role, err)
		}
		if got != role {
			t.Errorf("ParseRole(%q) = %q", role, got)
		}
	}
}

func TestParseRoleInvalid(t *testing.T) {
	for _, s := range []string{"", "devops", "Backend", "BACKEND", "front-end"} {
		if _, err := ParseRole(s); err == nil {
			t.Errorf("ParseRole(%q) accepted", s)
		}
	}
}
