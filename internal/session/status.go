package session

// Status drives the transient status indicator. StatusNone means no
// indicator is shown.
type Status string

const (
	StatusNone      Status = ""
	StatusExecuting Status = "EXECUTING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)
