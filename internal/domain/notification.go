package domain

import "time"

// Stream names
const (
	StreamComplaintNotifications = "stream:complaint:notifications"
)

// Event types published after a transaction commits
const (
	EventComplaintCreated    = "complaint.created"
	EventComplaintAssigned   = "complaint.assigned"
	EventComplaintUnassigned = "complaint.unassigned"
	EventStatusChanged       = "complaint.status_changed"
	EventCommentAdded        = "complaint.comment_added"
)

// Notification - stream payload consumed by the dispatch worker
type Notification struct {
	EventType string                 `json:"event_type"`
	ActorIDs  []int64                `json:"actor_ids,omitempty"`
	Mobiles   []string               `json:"mobiles,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// HasRecipients - notifications without recipients are dropped by the worker
func (n Notification) HasRecipients() bool {
	return len(n.ActorIDs) > 0 || len(n.Mobiles) > 0
}

// PushMessage - request sent to the push provider
type PushMessage struct {
	Recipients []string               `json:"recipients"`
	Title      string                 `json:"title"`
	Body       string                 `json:"body"`
	Data       map[string]interface{} `json:"data,omitempty"`
}
