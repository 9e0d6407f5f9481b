package journey

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
)

// planSchema is what an AI action plan must look like before it is used.
var planSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"tasks"},
	"properties": map[string]interface{}{
		"tasks": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"title"},
				"properties": map[string]interface{}{
					"id":          map[string]interface{}{"type": "string"},
					"title":       map[string]interface{}{"type": "string", "minLength": 1},
					"description": map[string]interface{}{"type": "string"},
					"priority":    map[string]interface{}{"type": "string"},
					"timeframe":   map[string]interface{}{"type": "string"},
					"week":        map[string]interface{}{"type": "integer", "minimum": 0},
					"category":    map[string]interface{}{"type": "string"},
					"phase":       map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Poster is the backend call the generator makes.
type Poster interface {
	PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error
}

// Generator asks the backend for an AI action plan.
type Generator struct {
	poster   Poster
	endpoint string
	logger   logger.Logger
}

func NewGenerator(poster Poster, endpoint string, log logger.Logger) *Generator {
	if endpoint == "" {
		endpoint = "/api/ai-recommendations"
	}
	return &Generator{poster: poster, endpoint: endpoint, logger: log}
}

type recommendationRequest struct {
	UserID       string                 `json:"userId"`
	FromLocation string                 `json:"fromLocation"`
	ToLocation   string                 `json:"toLocation"`
	MoveDate     string                 `json:"moveDate,omitempty"`
	Preferences  map[string]interface{} `json:"preferences,omitempty"`
}

// Generate returns a normalized task list for mc.
func (g *Generator) Generate(ctx context.Context, userID string, mc movecontext.MoveContext, prefs map[string]interface{}) ([]Task, error) {
	var raw map[string]interface{}
	err := g.poster.PostJSON(ctx, g.endpoint, recommendationRequest{
		UserID:       userID,
		FromLocation: mc.From,
		ToLocation:   mc.To,
		MoveDate:     mc.MoveDate,
		Preferences:  prefs,
	}, &raw)
	if err != nil {
		return nil, commonerrors.NewJourneyGenerationFailedError(err)
	}

	plan := extractPlan(raw)
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	tasks := normalize(plan["tasks"].([]interface{}))
	g.logger.Info("generated journey", map[string]interface{}{
		"userId":    userID,
		"taskCount": len(tasks),
	})
	return tasks, nil
}

// extractPlan accepts {"tasks": [...]}, {"actionPlan": [...]} and
// {"actionPlan": {"tasks": [...]}}.
func extractPlan(raw map[string]interface{}) map[string]interface{} {
	for _, key := range []string{"tasks", "actionPlan", "recommendations"} {
		switch v := raw[key].(type) {
		case []interface{}:
			return map[string]interface{}{"tasks": v}
		case map[string]interface{}:
			if tasks, ok := v["tasks"].([]interface{}); ok {
				return map[string]interface{}{"tasks": tasks}
			}
		}
	}
	return map[string]interface{}{}
}

var errPlanInvalid = errors.New("plan does not match schema")

func validatePlan(plan map[string]interface{}) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(planSchema), gojsonschema.NewGoLoader(plan))
	if err != nil {
		return commonerrors.NewJourneyPlanInvalidError(fmt.Sprintf("%v: %v", errPlanInvalid, err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return commonerrors.NewJourneyPlanInvalidError(strings.Join(msgs, "; "))
	}
	return nil
}

func normalize(items []interface{}) []Task {
	tasks := make([]Task, 0, len(items))
	seen := make(map[string]int)

	for i, item := range items {
		m, _ := item.(map[string]interface{})
		t := Task{
			ID:          str(m, "id"),
			Title:       str(m, "title"),
			Description: str(m, "description"),
			Priority:    ParsePriority(str(m, "priority")),
			Timeframe:   str(m, "timeframe"),
			Category:    strings.ToLower(str(m, "category")),
			Phase:       strings.ToLower(str(m, "phase")),
		}
		if w, ok := m["week"].(float64); ok {
			t.Week = int(w)
		}
		if t.Category == "" {
			t.Category = "general"
		}
		if t.ID == "" {
			t.ID = slug(t.Title)
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("task-%d", i+1)
		}
		// ids must be unique for the completion set to be meaningful
		if n := seen[t.ID]; n > 0 {
			base := t.ID
			for seen[t.ID] > 0 {
				n++
				t.ID = fmt.Sprintf("%s-%d", base, n)
			}
			seen[base] = n
		}
		seen[t.ID]++
		tasks = append(tasks, t)
	}
	return tasks
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func slug(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
