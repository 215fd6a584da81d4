package hermes

import "time"

// Subjects published by the session controller.
const (
	SubjectStatus   = "jarvis.session.status"
	SubjectAppended = "jarvis.conversation.appended"
	SubjectReset    = "jarvis.conversation.reset"
)

// StatusEvent announces a session status transition. Status is empty when
// the indicator clears.
type StatusEvent struct {
	RequestID string    `json:"request_id,omitempty"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// AppendedEvent announces a message added to the conversation.
type AppendedEvent struct {
	RequestID string    `json:"request_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
}

// ResetEvent announces that the conversation was cleared.
type ResetEvent struct {
	At time.Time `json:"at"`
}
