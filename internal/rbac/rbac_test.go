package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionRead, true},
		{RoleAdmin, ActionWrite, true},
		{RoleAdmin, ActionAdmin, true},
		{RoleClient, ActionRead, true},
		{RoleClient, ActionWrite, false},
		{RoleClient, ActionAdmin, false},
		{Role("ghost"), ActionRead, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.action); got != tc.want {
			t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestCanAccess(t *testing.T) {
	if !CanAccess("usr_admin", RoleAdmin, "cl_other") {
		t.Error("admin should access any resource")
	}
	if !CanAccess("cl_1", RoleClient, "cl_1") {
		t.Error("client should access own resource")
	}
	if CanAccess("cl_1", RoleClient, "cl_2") {
		t.Error("client should not access another client's resource")
	}
	if CanAccess("cl_1", RoleClient, "") {
		t.Error("resource without an owner should deny clients")
	}
	if CanAccess("", RoleAdmin, "cl_1") {
		t.Error("missing identity should always deny")
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("admin") != RoleAdmin {
		t.Error("admin should normalize to admin")
	}
	if Normalize("superuser") != RoleClient {
		t.Error("unknown roles should normalize to client")
	}
}
