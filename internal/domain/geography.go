package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NodeKind - level of a geography node
type NodeKind string

const (
	NodeDistrict NodeKind = "DISTRICT"
	NodeBlock    NodeKind = "BLOCK"
	NodeVillage  NodeKind = "VILLAGE"
)

// Depth - 0 for districts, 2 for villages
func (k NodeKind) Depth() int {
	switch k {
	case NodeDistrict:
		return 0
	case NodeBlock:
		return 1
	case NodeVillage:
		return 2
	default:
		return -1
	}
}

// ParentKind - required kind of the parent node; empty for districts
func (k NodeKind) ParentKind() NodeKind {
	switch k {
	case NodeBlock:
		return NodeDistrict
	case NodeVillage:
		return NodeBlock
	default:
		return ""
	}
}

func (k NodeKind) Valid() bool {
	return k.Depth() >= 0
}

// GeographyNode - district, block or village. Never reparented after creation.
type GeographyNode struct {
	ID       int64    `json:"id" db:"id"`
	Kind     NodeKind `json:"kind" db:"kind"`
	ParentID *int64   `json:"parent_id,omitempty" db:"parent_id"`
	Name     string   `json:"name" db:"name"`
}

// CheckParent verifies the three-level invariant against the loaded parent.
func (n GeographyNode) CheckParent(parent *GeographyNode) error {
	want := n.Kind.ParentKind()
	switch {
	case want == "" && n.ParentID != nil:
		return fmt.Errorf("geography node %d: %s must not have a parent", n.ID, n.Kind)
	case want == "":
		return nil
	case parent == nil || n.ParentID == nil:
		return fmt.Errorf("geography node %d: %s requires a %s parent", n.ID, n.Kind, want)
	case parent.Kind != want:
		return fmt.Errorf("geography node %d: %s parent %d is %s, want %s", n.ID, n.Kind, parent.ID, parent.Kind, want)
	}
	return nil
}

// CheckChain validates an ancestor chain ordered root first.
func CheckChain(chain []GeographyNode) error {
	for i, node := range chain {
		var parent *GeographyNode
		if i > 0 {
			parent = &chain[i-1]
		}
		if err := node.CheckParent(parent); err != nil {
			return err
		}
	}
	return nil
}

// VillageSet - set of village ids. Serialized as a sorted array.
type VillageSet map[int64]struct{}

func NewVillageSet(ids ...int64) VillageSet {
	s := make(VillageSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s VillageSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s VillageSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Intersect returns the villages present in both sets
func (s VillageSet) Intersect(other VillageSet) VillageSet {
	out := make(VillageSet)
	for id := range s {
		if other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// IDs - sorted ids
func (s VillageSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s VillageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *VillageSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewVillageSet(ids...)
	return nil
}
