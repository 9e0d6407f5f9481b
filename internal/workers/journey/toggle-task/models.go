// internal/workers/journey/toggle-task/models.go
package toggletask

type Input struct {
	UserID string `json:"userId"`
	TaskID string `json:"taskId"`
	// Completed sets the state explicitly instead of flipping it.
	Completed *bool `json:"completed,omitempty"`
	// TaskIDs limits the valid ids; the user's latest journey is used when empty.
	TaskIDs []string `json:"taskIds,omitempty"`
}

type Output struct {
	TaskID         string   `json:"taskId"`
	Completed      bool     `json:"completed"`
	CompletedTasks []string `json:"completedTasks"`
	Progress       int      `json:"progress"`
}
