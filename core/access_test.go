package core_test

import (
	"testing"

	"task-tracker/core"
)

func user(id int64, level int, teamID, deptID *int64) core.User {
	return core.User{ID: id, AccessLevel: level, TeamID: teamID, DepartmentID: deptID}
}

func TestCanView(t *testing.T) {
	t.Parallel()

	owner := user(1, core.LevelManager, nil, nil)

	cases := []struct {
		name    string
		actor   core.User
		members []int64
		want    bool
	}{
		{"owner", owner, nil, true},
		{"member", user(2, core.LevelWorker, nil, nil), []int64{2}, true},
		{"outranks", user(3, core.LevelDirector, nil, nil), nil, true},
		{"same level stranger", user(4, core.LevelManager, nil, nil), nil, false},
		{"lower level stranger", user(5, core.LevelWorker, nil, nil), nil, false},
	}
	for _, tc := range cases {
		if got := core.CanView(tc.actor, owner, tc.members); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCanView_IgnoresTeamScoping(t *testing.T) {
	t.Parallel()

	// a director from another department still views a worker's task directly;
	// scoping only narrows listings
	owner := user(1, core.LevelWorker, i64(10), i64(100))
	director := user(2, core.LevelDirector, nil, i64(200))

	if !core.CanView(director, owner, nil) {
		t.Fatalf("outranking must grant direct access across departments")
	}
	if core.InListingScope(director, owner) {
		t.Fatalf("the same pair must not appear in listings")
	}
}

func TestCanAssign(t *testing.T) {
	t.Parallel()

	worker := user(1, core.LevelWorker, nil, nil)
	manager := user(2, core.LevelManager, nil, nil)
	peerManager := user(3, core.LevelManager, nil, nil)

	if core.CanAssign(worker, worker) {
		t.Fatalf("the lowest level must never assign, not even to itself")
	}
	if !core.CanAssign(manager, manager) {
		t.Fatalf("self-assignment above the lowest level must be allowed")
	}
	if !core.CanAssign(manager, worker) {
		t.Fatalf("assigning downward must be allowed")
	}
	if core.CanAssign(manager, peerManager) {
		t.Fatalf("assigning to a peer must be rejected")
	}
}

func TestCanEditPriority(t *testing.T) {
	t.Parallel()

	owner := user(1, core.LevelWorker, nil, nil)
	admin := user(2, core.LevelAdmin, nil, nil)

	if !core.CanEditPriority(owner, owner.ID) {
		t.Fatalf("the owner edits their own priority")
	}
	if core.CanEditPriority(admin, owner.ID) {
		t.Fatalf("rank must not override the ownership rule for priority")
	}
}

func TestInListingScope(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		actor core.User
		owner core.User
		want  bool
	}{
		{"self", user(1, core.LevelWorker, nil, nil), user(1, core.LevelWorker, nil, nil), true},
		{"worker vs teammate", user(1, core.LevelWorker, i64(10), nil), user(2, core.LevelWorker, i64(10), nil), false},
		{"manager vs team worker", user(1, core.LevelManager, i64(10), nil), user(2, core.LevelWorker, i64(10), nil), true},
		{"manager vs other team worker", user(1, core.LevelManager, i64(10), nil), user(2, core.LevelWorker, i64(20), nil), false},
		{"manager vs team manager", user(1, core.LevelManager, i64(10), nil), user(2, core.LevelManager, i64(10), nil), false},
		{"manager without team", user(1, core.LevelManager, nil, nil), user(2, core.LevelWorker, nil, nil), false},
		{"director vs dept manager", user(1, core.LevelDirector, nil, i64(100)), user(2, core.LevelManager, i64(10), i64(100)), true},
		{"director vs dept director", user(1, core.LevelDirector, nil, i64(100)), user(2, core.LevelDirector, nil, i64(100)), false},
		{"director vs other dept", user(1, core.LevelDirector, nil, i64(100)), user(2, core.LevelWorker, nil, i64(200)), false},
		{"admin vs anyone", user(1, core.LevelAdmin, nil, nil), user(2, core.LevelDirector, nil, i64(100)), true},
	}
	for _, tc := range cases {
		if got := core.InListingScope(tc.actor, tc.owner); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
