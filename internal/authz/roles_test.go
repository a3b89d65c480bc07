package authz

import (
	"errors"
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"teacher", RoleTeacher},
		{"Teacher", RoleTeacher},
		{" ADMIN ", RoleAdmin},
		{"super_admin", RoleSuperAdmin},
		{"user", RoleUser},
		{"", RoleUser},
		{"root", RoleUser},
	}
	for _, c := range cases {
		if got := NormalizeRole(c.in); got != c.want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRolePredicates(t *testing.T) {
	if RoleUser.Staff() || RoleUser.Elevated() {
		t.Fatalf("student role must not pass staff checks")
	}
	if !RoleTeacher.Staff() {
		t.Fatalf("teacher is staff")
	}
	if RoleTeacher.Elevated() {
		t.Fatalf("teacher is not elevated")
	}
	if !RoleAdmin.Elevated() || !RoleSuperAdmin.Elevated() {
		t.Fatalf("admin roles are elevated")
	}
	if !RoleAdmin.In(RoleAdmin, RoleSuperAdmin) {
		t.Fatalf("In should match a member")
	}
	if RoleTeacher.In(RoleAdmin, RoleSuperAdmin) {
		t.Fatalf("In should reject a non-member")
	}
}

// fakeRoster answers membership from an in-memory pair set.
type fakeRoster struct {
	pairs map[[2]uint]bool
	err   error
}

func (f fakeRoster) OnRoster(teacherID, studentID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pairs[[2]uint{teacherID, studentID}], nil
}

func TestCanActOnStudent(t *testing.T) {
	roster := fakeRoster{pairs: map[[2]uint]bool{{1, 10}: true}}

	ok, err := CanActOnStudent(roster, RoleTeacher, 1, 10)
	if err != nil || !ok {
		t.Fatalf("teacher with link should act, got ok=%v err=%v", ok, err)
	}
	ok, err = CanActOnStudent(roster, RoleTeacher, 1, 11)
	if err != nil || ok {
		t.Fatalf("teacher without link must be refused, got ok=%v err=%v", ok, err)
	}
	// Elevated roles never consult the roster.
	ok, err = CanActOnStudent(roster, RoleAdmin, 2, 11)
	if err != nil || !ok {
		t.Fatalf("admin should act on any student, got ok=%v err=%v", ok, err)
	}
	ok, err = CanActOnStudent(roster, RoleSuperAdmin, 2, 11)
	if err != nil || !ok {
		t.Fatalf("super_admin should act on any student, got ok=%v err=%v", ok, err)
	}
	// Students never hold roster scope, linked or not.
	ok, err = CanActOnStudent(roster, RoleUser, 1, 10)
	if err != nil || ok {
		t.Fatalf("student role must be refused, got ok=%v err=%v", ok, err)
	}
}

func TestCanActOnStudentGrantedByLink(t *testing.T) {
	pairs := map[[2]uint]bool{}
	roster := fakeRoster{pairs: pairs}

	ok, _ := CanActOnStudent(roster, RoleTeacher, 3, 30)
	if ok {
		t.Fatalf("unlinked teacher must be refused")
	}

	pairs[[2]uint{3, 30}] = true
	ok, _ = CanActOnStudent(roster, RoleTeacher, 3, 30)
	if !ok {
		t.Fatalf("same request must succeed once the link exists")
	}
}

func TestCanActOnStudentPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	ok, err := CanActOnStudent(fakeRoster{err: boom}, RoleTeacher, 1, 2)
	if ok || !errors.Is(err, boom) {
		t.Fatalf("roster errors must surface, got ok=%v err=%v", ok, err)
	}
	// Elevated roles do not touch the roster, so the error never occurs.
	ok, err = CanActOnStudent(fakeRoster{err: boom}, RoleAdmin, 1, 2)
	if !ok || err != nil {
		t.Fatalf("elevated path should not hit the roster, got ok=%v err=%v", ok, err)
	}
}
