package rolegraph

import (
	"testing"

	"github.com/google/uuid"

	"iamkernel/model"
)

func TestPermissionsUnionsEnabledRolesOnly(t *testing.T) {
	editor := &model.Role{ID: uuid.New(), Permissions: []string{"project.get", "project.update"}}
	viewer := &model.Role{ID: uuid.New(), Permissions: []string{"project.get"}}
	disabled := &model.Role{ID: uuid.New(), Permissions: []string{"project.delete"}, Disabled: true}

	closure := map[uuid.UUID]*model.Role{
		editor.ID:   editor,
		viewer.ID:   viewer,
		disabled.ID: disabled,
	}

	got := Permissions(closure)

	want := map[string]struct{}{
		"project.get":    {},
		"project.update": {},
	}
	if len(got) != len(want) {
		t.Fatalf("Permissions() = %v, want %v", got, want)
	}
	for p := range want {
		if _, ok := got[p]; !ok {
			t.Errorf("Permissions() missing %q", p)
		}
	}
	if _, ok := got["project.delete"]; ok {
		t.Errorf("Permissions() included a permission from a disabled role")
	}
}

func TestPermissionsOfEmptyClosure(t *testing.T) {
	got := Permissions(map[uuid.UUID]*model.Role{})
	if len(got) != 0 {
		t.Errorf("Permissions(empty) = %v, want empty", got)
	}
}
