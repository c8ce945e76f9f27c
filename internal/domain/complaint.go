package domain

import "time"

// Status - complaint lifecycle state
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusVerified   Status = "VERIFIED"
	StatusClosed     Status = "CLOSED"
	StatusInvalid    Status = "INVALID"
)

var AllStatuses = []Status{
	StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted,
	StatusVerified, StatusClosed, StatusInvalid,
}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusInvalid
}

// CountsAsLoad - statuses counted against a worker by the assignment engine
func (s Status) CountsAsLoad() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// Complaint - mutated only through lifecycle transitions; Version guards concurrent writes
type Complaint struct {
	ID               int64     `json:"id" db:"id"`
	VillageID        int64     `json:"village_id" db:"village_id"`
	ComplaintTypeID  int64     `json:"complaint_type_id" db:"complaint_type_id"`
	Description      string    `json:"description" db:"description"`
	MobileNumber     *string   `json:"mobile_number,omitempty" db:"mobile_number"`
	Status           Status    `json:"status" db:"status"`
	AssignedWorkerID *int64    `json:"assigned_worker_id,omitempty" db:"assigned_worker_id"`
	Version          int64     `json:"version" db:"version"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

func (c *Complaint) IsAssignedTo(actorID int64) bool {
	return c.AssignedWorkerID != nil && *c.AssignedWorkerID == actorID
}

// ComplaintType - reference data
type ComplaintType struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Comment - append-only; exactly one of AuthorID / AuthorMobile is set
type Comment struct {
	ID           int64     `json:"id" db:"id"`
	ComplaintID  int64     `json:"complaint_id" db:"complaint_id"`
	AuthorID     *int64    `json:"author_id,omitempty" db:"author_id"`
	AuthorMobile *string   `json:"author_mobile,omitempty" db:"author_mobile"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Media - append-only attachment reference
type Media struct {
	ID               int64     `json:"id" db:"id"`
	ComplaintID      int64     `json:"complaint_id" db:"complaint_id"`
	URL              string    `json:"url" db:"url"`
	UploadedByID     *int64    `json:"uploaded_by_id,omitempty" db:"uploaded_by_id"`
	UploadedByMobile *string   `json:"uploaded_by_mobile,omitempty" db:"uploaded_by_mobile"`
	UploadedAt       time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// StatusChange - audit row written with every transition
type StatusChange struct {
	ID          int64     `json:"id" db:"id"`
	ComplaintID int64     `json:"complaint_id" db:"complaint_id"`
	FromStatus  *Status   `json:"from_status,omitempty" db:"from_status"`
	ToStatus    Status    `json:"to_status" db:"to_status"`
	ActorID     *int64    `json:"actor_id,omitempty" db:"actor_id"`
	ActorMobile *string   `json:"actor_mobile,omitempty" db:"actor_mobile"`
	Note        *string   `json:"note,omitempty" db:"note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Authorship - actor fields for comment/media/history rows. System actor yields both nil.
func Authorship(a Actor) (id *int64, mobile *string) {
	switch {
	case a.IsStaff():
		v := a.ID
		return &v, nil
	case a.IsCitizen():
		v := a.Mobile
		return nil, &v
	default:
		return nil, nil
	}
}

// ComplaintDetails - complaint with its children, oldest first
type ComplaintDetails struct {
	Complaint *Complaint     `json:"complaint"`
	Comments  []Comment      `json:"comments"`
	Media     []Media        `json:"media"`
	History   []StatusChange `json:"history"`
}

// OrderBy - listing order
type OrderBy string

const (
	OrderNewest  OrderBy = "newest"
	OrderOldest  OrderBy = "oldest"
	OrderStatus  OrderBy = "status"
	OrderVillage OrderBy = "village"
)

func (o OrderBy) Valid() bool {
	switch o {
	case OrderNewest, OrderOldest, OrderStatus, OrderVillage:
		return true
	}
	return false
}

// ComplaintQuery - repository-level listing query. Villages nil means unrestricted;
// an empty non-nil set matches nothing.
type ComplaintQuery struct {
	Villages     VillageSet
	Status       *Status
	MobileNumber *string
	AssignedTo   *int64
	From         *time.Time
	To           *time.Time
	OrderBy      OrderBy
	Skip         int
	Limit        int
}
