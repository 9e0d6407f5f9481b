// internal/workers/journey/generate-journey/models.go
package generatejourney

import "ezrelo/internal/journey"

type Input struct {
	UserID       string                 `json:"userId"`
	FromLocation string                 `json:"fromLocation,omitempty"`
	ToLocation   string                 `json:"toLocation,omitempty"`
	MoveDate     string                 `json:"moveDate,omitempty"`
	Preferences  map[string]interface{} `json:"preferences,omitempty"`
	UseAI        *bool                  `json:"useAi,omitempty"`
}

type Output struct {
	JourneyID      string         `json:"journeyId"`
	Source         string         `json:"journeySource"`
	Tasks          []journey.Task `json:"tasks"`
	TaskIDs        []string       `json:"taskIds"`
	TaskCount      int            `json:"taskCount"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
}
