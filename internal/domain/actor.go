package domain

import "fmt"

// ActorKind - staff members hold positions, citizens are identified by mobile number
type ActorKind string

const (
	ActorStaff   ActorKind = "staff"
	ActorCitizen ActorKind = "citizen"
	ActorSystem  ActorKind = "system"
)

// Actor is passed explicitly to every operation that needs authorization.
type Actor struct {
	ID     int64     `json:"id,omitempty"`
	Mobile string    `json:"mobile,omitempty"`
	Kind   ActorKind `json:"kind"`
}

func StaffActor(id int64) Actor {
	return Actor{ID: id, Kind: ActorStaff}
}

func CitizenActor(mobile string) Actor {
	return Actor{Mobile: mobile, Kind: ActorCitizen}
}

// SystemActor - the service itself (auto-assignment on creation)
func SystemActor() Actor {
	return Actor{Kind: ActorSystem}
}

func (a Actor) IsStaff() bool   { return a.Kind == ActorStaff && a.ID > 0 }
func (a Actor) IsCitizen() bool { return a.Kind == ActorCitizen && a.Mobile != "" }
func (a Actor) IsSystem() bool  { return a.Kind == ActorSystem }

// OwnsComplaint - citizen who filed the complaint
func (a Actor) OwnsComplaint(c *Complaint) bool {
	return a.IsCitizen() && c.MobileNumber != nil && *c.MobileNumber == a.Mobile
}

func (a Actor) String() string {
	switch a.Kind {
	case ActorStaff:
		return fmt.Sprintf("staff:%d", a.ID)
	case ActorCitizen:
		return "citizen:" + a.Mobile
	default:
		return string(a.Kind)
	}
}
