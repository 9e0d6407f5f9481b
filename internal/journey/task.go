// Package journey models the ordered list of relocation tasks a user works
// through, either the built-in checklist or an AI-generated plan.
package journey

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps free text to a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

const (
	PhasePlanning    = "planning"
	PhasePreparation = "preparation"
	PhaseMoving      = "moving"
	PhaseSettlingIn  = "settling-in"
	PhaseAnytime     = "anytime"
)

// Task is one relocation step. Completion is not part of the task; it lives
// in the progress tracker's completion set.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Timeframe   string   `json:"timeframe"`
	Week        int      `json:"week"`
	Category    string   `json:"category"`
	Phase       string   `json:"phase,omitempty"`
}

// PhaseOf returns the task's phase, deriving it from the plan week when the
// task does not name one.
func PhaseOf(t Task) string {
	if t.Phase != "" {
		return t.Phase
	}
	switch {
	case t.Week <= 0:
		return PhaseAnytime
	case t.Week <= 2:
		return PhasePlanning
	case t.Week <= 4:
		return PhasePreparation
	case t.Week <= 6:
		return PhaseMoving
	default:
		return PhaseSettlingIn
	}
}

const (
	SourceDefault = "default"
	SourceAI      = "ai"
)

// Journey is a saved task list for one user and route.
type Journey struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Source       string    `json:"source"`
	FromLocation string    `json:"fromLocation"`
	ToLocation   string    `json:"toLocation"`
	MoveDate     string    `json:"moveDate"`
	Tasks        []Task    `json:"tasks"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TaskIDs returns the ids in plan order.
func TaskIDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// Find returns the task with id.
func Find(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
