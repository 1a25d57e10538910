package services

import (
	"testing"

	"github.com/qbank-io/apiserver/types"
)

func TestUserUpdateApply(t *testing.T) {
	current := types.User{
		ID:           1,
		Username:     "editor",
		Email:        "editor@example.com",
		Role:         types.RoleEditor,
		PasswordHash: "old-hash",
		IsActive:     true,
	}

	role := types.RoleAdmin
	inactive := false
	updated := UserUpdate{Role: &role, IsActive: &inactive}.Apply(current)

	if updated.Role != types.RoleAdmin {
		t.Fatalf("role not applied: %s", updated.Role)
	}
	if updated.IsActive {
		t.Fatalf("is_active not applied")
	}
	if updated.Username != "editor" || updated.Email != "editor@example.com" || updated.PasswordHash != "old-hash" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	hash := "new-hash"
	updated = UserUpdate{PasswordHash: &hash}.Apply(current)
	if updated.PasswordHash != "new-hash" {
		t.Fatalf("password hash not applied")
	}
	if !updated.IsActive || updated.Role != types.RoleEditor {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}
