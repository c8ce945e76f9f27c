package domain

import "time"

// Jurisdiction - resolved access scope of an actor. Built from active positions only.
type Jurisdiction struct {
	ActorID int64 `json:"actor_id"`
	// All - holds an active ADMIN or SUPERADMIN position
	All      bool       `json:"all"`
	TopRole  Role       `json:"top_role,omitempty"`
	Villages VillageSet `json:"villages"`
	// RoleVillages - villages covered per scoped role
	RoleVillages map[Role]VillageSet `json:"role_villages"`
	// ExpiresAt - earliest moment a position ends or starts; nil when open-ended
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

func EmptyJurisdiction(actorID int64, at time.Time) *Jurisdiction {
	return &Jurisdiction{
		ActorID:      actorID,
		Villages:     make(VillageSet),
		RoleVillages: make(map[Role]VillageSet),
		ResolvedAt:   at,
	}
}

// Grant adds the villages reachable through a position with the given role.
func (j *Jurisdiction) Grant(role Role, villages VillageSet) {
	if role.Rank() > j.TopRole.Rank() {
		j.TopRole = role
	}
	if role.Unscoped() {
		j.All = true
		return
	}
	set, ok := j.RoleVillages[role]
	if !ok {
		set = make(VillageSet)
		j.RoleVillages[role] = set
	}
	for id := range villages {
		set.Add(id)
		j.Villages.Add(id)
	}
}

// NarrowExpiry keeps the earliest expiry
func (j *Jurisdiction) NarrowExpiry(at time.Time) {
	if j.ExpiresAt == nil || at.Before(*j.ExpiresAt) {
		t := at
		j.ExpiresAt = &t
	}
}

func (j *Jurisdiction) IsEmpty() bool {
	return j == nil || (!j.All && len(j.Villages) == 0)
}

// Covers - read predicate for a single village
func (j *Jurisdiction) Covers(villageID int64) bool {
	if j == nil {
		return false
	}
	return j.All || j.Villages.Has(villageID)
}

// HasRoleIn reports whether the actor holds min or a higher role covering the village.
func (j *Jurisdiction) HasRoleIn(villageID int64, min Role) bool {
	if j == nil {
		return false
	}
	if j.All && j.TopRole.AtLeast(min) {
		return true
	}
	for role, villages := range j.RoleVillages {
		if role.AtLeast(min) && villages.Has(villageID) {
			return true
		}
	}
	return false
}

// IsWorkerIn - holds an active WORKER position for the village
func (j *Jurisdiction) IsWorkerIn(villageID int64) bool {
	if j == nil {
		return false
	}
	return j.RoleVillages[RoleWorker].Has(villageID)
}

// Filter - nil for ALL, otherwise a copy of the covered villages
func (j *Jurisdiction) Filter() VillageSet {
	if j == nil {
		return make(VillageSet)
	}
	if j.All {
		return nil
	}
	out := make(VillageSet, len(j.Villages))
	for id := range j.Villages {
		out[id] = struct{}{}
	}
	return out
}
