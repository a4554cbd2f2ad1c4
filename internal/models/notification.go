package models

// Notification is the fire-and-forget message handed to the dispatcher. The
// core never waits on delivery.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	ActionID int64  `json:"action_id,omitempty"`
}
