package domain

// StreamMessage - message read from a Redis Stream; Data is the JSON "data" field
type StreamMessage struct {
	ID   string
	Data string
}
