package core

// Stateless authorization predicates. Single-resource checks use only the
// outranking rule; team/department scoping applies only when enumerating
// collections (InListingScope) and never restricts access to a known
// resource.

// Outranks reports whether actor's access level is strictly above owner's.
func Outranks(actor, owner User) bool {
	return actor.AccessLevel > owner.AccessLevel
}

// CanView: owner, member, or anyone outranking the owner.
func CanView(actor, owner User, memberIDs []int64) bool {
	if actor.ID == owner.ID {
		return true
	}
	if containsID(memberIDs, actor.ID) {
		return true
	}
	return Outranks(actor, owner)
}

// CanEditFields matches CanView. The one exception, the priority bucket, is
// gated separately by CanEditPriority.
func CanEditFields(actor, owner User, memberIDs []int64) bool {
	return CanView(actor, owner, memberIDs)
}

// CanEditPriority requires strict ownership regardless of rank or membership.
func CanEditPriority(actor User, ownerID int64) bool {
	return actor.ID == ownerID
}

// CanCreateFor: creating on someone's behalf requires being that someone or
// outranking them. Also governs owner reassignment.
func CanCreateFor(actor, intendedOwner User) bool {
	return actor.ID == intendedOwner.ID || Outranks(actor, intendedOwner)
}

// CanAssign mirrors CanCreateFor against the candidate assignee, with the
// additional rule that workers at the lowest level never assign at all.
func CanAssign(actor, assignee User) bool {
	if actor.AccessLevel == LevelWorker {
		return false
	}
	return actor.ID == assignee.ID || Outranks(actor, assignee)
}

// InListingScope decides whether a resource owned by owner shows up when
// actor enumerates a collection. Managers see their team's workers,
// directors see their department below their own level, the top level sees
// everything. Everyone sees what they own.
func InListingScope(actor, owner User) bool {
	if actor.ID == owner.ID {
		return true
	}
	switch {
	case actor.AccessLevel >= LevelAdmin:
		return true
	case actor.AccessLevel == LevelDirector:
		return owner.AccessLevel < LevelDirector && sameDepartment(actor, owner)
	case actor.AccessLevel == LevelManager:
		return owner.AccessLevel < LevelManager && sameTeam(actor, owner)
	default:
		return false
	}
}

func sameTeam(a, b User) bool {
	return a.TeamID != nil && b.TeamID != nil && *a.TeamID == *b.TeamID
}

func sameDepartment(a, b User) bool {
	return a.DepartmentID != nil && b.DepartmentID != nil && *a.DepartmentID == *b.DepartmentID
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
