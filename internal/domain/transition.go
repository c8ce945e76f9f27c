package domain

// Requirement - who may drive a transition
type Requirement int

const (
	// RequireSupervisorBDO - system or BDO and above in the village
	RequireSupervisorBDO Requirement = iota
	// RequireAssignee - the assigned WORKER
	RequireAssignee
	// RequireSupervisorVDO - VDO and above in the village
	RequireSupervisorVDO
	// RequireSupervisorVDOOrOwner - VDO and above, or the citizen who filed
	RequireSupervisorVDOOrOwner
	// RequireAssigneeOrSupervisorVDO - the assigned WORKER, or VDO and above
	RequireAssigneeOrSupervisorVDO
)

// TransitionRule - one row of the lifecycle table
type TransitionRule struct {
	From        Status
	To          Status
	Requirement Requirement
	// NoteRequired - the transition must carry an explanatory note
	NoteRequired bool
	// EvidenceRequired - a note, or a comment/media by the assignee, must exist
	EvidenceRequired bool
	// AssignsWorker - the transition sets assigned_worker_id
	AssignsWorker bool
}

var transitionTable = []TransitionRule{
	{From: StatusOpen, To: StatusAssigned, Requirement: RequireSupervisorBDO, AssignsWorker: true},
	{From: StatusAssigned, To: StatusInProgress, Requirement: RequireAssignee},
	{From: StatusInProgress, To: StatusCompleted, Requirement: RequireAssignee, EvidenceRequired: true},
	{From: StatusCompleted, To: StatusVerified, Requirement: RequireSupervisorVDO},
	{From: StatusVerified, To: StatusClosed, Requirement: RequireSupervisorVDOOrOwner},
	{From: StatusOpen, To: StatusInvalid, Requirement: RequireAssigneeOrSupervisorVDO, NoteRequired: true},
	{From: StatusAssigned, To: StatusInvalid, Requirement: RequireAssigneeOrSupervisorVDO, NoteRequired: true},
}

// LookupTransition returns the rule for from -> to, false when the pair is not allowed.
func LookupTransition(from, to Status) (TransitionRule, bool) {
	for _, rule := range transitionTable {
		if rule.From == from && rule.To == to {
			return rule, true
		}
	}
	return TransitionRule{}, false
}

// NextStatuses - targets reachable from a status
func NextStatuses(from Status) []Status {
	var out []Status
	for _, rule := range transitionTable {
		if rule.From == from {
			out = append(out, rule.To)
		}
	}
	return out
}

// IsValidWalk reports whether statuses, starting at OPEN, only follow table edges.
func IsValidWalk(statuses []Status) bool {
	if len(statuses) == 0 {
		return true
	}
	if statuses[0] != StatusOpen {
		return false
	}
	for i := 1; i < len(statuses); i++ {
		if _, ok := LookupTransition(statuses[i-1], statuses[i]); !ok {
			return false
		}
	}
	return true
}

// Permits evaluates the actor requirement of a rule. Village coverage and
// assignment are taken from the freshly resolved jurisdiction.
func (r TransitionRule) Permits(actor Actor, j *Jurisdiction, c *Complaint) bool {
	assignee := actor.IsStaff() && c.IsAssignedTo(actor.ID) && j.IsWorkerIn(c.VillageID)

	switch r.Requirement {
	case RequireSupervisorBDO:
		return actor.IsSystem() || (actor.IsStaff() && j.HasRoleIn(c.VillageID, RoleBDO))
	case RequireAssignee:
		return assignee
	case RequireSupervisorVDO:
		return actor.IsStaff() && j.HasRoleIn(c.VillageID, RoleVDO)
	case RequireSupervisorVDOOrOwner:
		return actor.OwnsComplaint(c) || (actor.IsStaff() && j.HasRoleIn(c.VillageID, RoleVDO))
	case RequireAssigneeOrSupervisorVDO:
		return assignee || (actor.IsStaff() && j.HasRoleIn(c.VillageID, RoleVDO))
	default:
		return false
	}
}
