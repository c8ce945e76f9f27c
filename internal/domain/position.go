package domain

import "time"

// Role - administrative role held through a position
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleCEO        Role = "CEO"
	RoleBDO        Role = "BDO"
	RoleVDO        Role = "VDO"
	RoleWorker     Role = "WORKER"
)

// AllRoles ordered from the highest rank down
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleCEO, RoleBDO, RoleVDO, RoleWorker}

// Rank - higher outranks lower; 0 for unknown roles
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 6
	case RoleAdmin:
		return 5
	case RoleCEO:
		return 4
	case RoleBDO:
		return 3
	case RoleVDO:
		return 2
	case RoleWorker:
		return 1
	default:
		return 0
	}
}

func (r Role) Valid() bool { return r.Rank() > 0 }

// AtLeast reports whether r ranks at or above min
func (r Role) AtLeast(min Role) bool { return r.Rank() >= min.Rank() }

// Unscoped - ADMIN and SUPERADMIN act everywhere
func (r Role) Unscoped() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// ScopeKind - the node kind a position with this role must be anchored to
func (r Role) ScopeKind() NodeKind {
	switch r {
	case RoleCEO:
		return NodeDistrict
	case RoleBDO:
		return NodeBlock
	case RoleVDO, RoleWorker:
		return NodeVillage
	default:
		return ""
	}
}

// CanAppoint - hierarchical appointment rules
func (r Role) CanAppoint(target Role) bool {
	switch r {
	case RoleSuperAdmin:
		return target.Valid()
	case RoleAdmin:
		return target.Valid() && !target.Unscoped()
	case RoleCEO:
		return target == RoleBDO || target == RoleVDO || target == RoleWorker
	case RoleBDO:
		return target == RoleVDO || target == RoleWorker
	case RoleVDO:
		return target == RoleWorker
	default:
		return false
	}
}

// Position - time-bounded role assignment. Ended on transfer, never deleted.
type Position struct {
	ID          int64      `json:"id" db:"id"`
	HolderID    int64      `json:"holder_id" db:"holder_id"`
	Role        Role       `json:"role" db:"role"`
	ScopeNodeID *int64     `json:"scope_node_id,omitempty" db:"scope_node_id"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
}

// IsActive - started and not yet ended at the given instant
func (p Position) IsActive(at time.Time) bool {
	if p.StartDate.After(at) {
		return false
	}
	return p.EndDate == nil || p.EndDate.After(at)
}
