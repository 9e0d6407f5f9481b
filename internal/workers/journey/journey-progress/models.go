// internal/workers/journey/journey-progress/models.go
package journeyprogress

import (
	"ezrelo/internal/journey"
	"ezrelo/internal/progress"
)

type Input struct {
	UserID string         `json:"userId"`
	Tasks  []journey.Task `json:"tasks,omitempty"`
}

type Output struct {
	Progress       int                         `json:"progress"`
	CompletedCount int                         `json:"completedCount"`
	TotalCount     int                         `json:"totalCount"`
	JourneySource  string                      `json:"journeySource"`
	ByCategory     map[string]progress.Summary `json:"byCategory"`
	ByPhase        map[string]progress.Summary `json:"byPhase"`
	Tasks          []progress.TaskStatus       `json:"tasks"`
}
