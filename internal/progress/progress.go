// Package progress tracks which journey tasks a user has completed and
// derives completion percentages from that set alone.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"ezrelo/internal/common/logger"
	"ezrelo/internal/common/metrics"
	"ezrelo/internal/journey"
	"ezrelo/internal/store"
)

var ErrEmptyTaskID = errors.New("task id is required")

// Completion maps task id to when it was completed. It is the only record of
// completion; task values never carry a completed flag of their own.
type Completion map[string]time.Time

func (c Completion) Has(taskID string) bool {
	_, ok := c[taskID]
	return ok
}

// IDs returns the completed ids sorted.
func (c Completion) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tracker persists completion per user. The completedTasksAt key holds the
// map; completedTasks mirrors it as the JSON array of ids the web app reads.
type Tracker struct {
	kv     store.Store
	logger logger.Logger
	now    func() time.Time
}

func NewTracker(kv store.Store, log logger.Logger) *Tracker {
	return &Tracker{kv: kv, logger: log, now: time.Now}
}

// Load returns the user's completion set, falling back to the legacy id
// array when no timestamps were ever written.
func (t *Tracker) Load(ctx context.Context, userID string) (Completion, error) {
	raw, err := t.kv.GetString(ctx, userID, store.KeyCompletedTasksAt)
	if err != nil {
		return nil, err
	}
	legacy, err := store.GetStringSlice(ctx, t.kv, userID, store.KeyCompletedTasks)
	if err != nil {
		return nil, err
	}
	return t.decode(raw, legacy), nil
}

// decode never fails; corrupt data counts as an empty set.
func (t *Tracker) decode(raw string, legacy []string) Completion {
	c := Completion{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			return c
		}
		t.logger.Debug("ignoring corrupt completion map", map[string]interface{}{"length": len(raw)})
		c = Completion{}
	}
	for _, id := range legacy {
		if id != "" {
			c[id] = time.Time{}
		}
	}
	return c
}

// legacyIDs decodes the id array; corrupt data counts as empty.
func (t *Tracker) legacyIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		t.logger.Debug("ignoring corrupt completion ids", map[string]interface{}{"length": len(raw)})
		return nil
	}
	return ids
}

// Toggle flips taskID's membership and persists the whole set. It reports
// whether the task is completed afterwards.
func (t *Tracker) Toggle(ctx context.Context, userID, taskID string) (bool, Completion, error) {
	return t.apply(ctx, userID, taskID, func(c Completion) {
		if c.Has(taskID) {
			delete(c, taskID)
		} else {
			c[taskID] = t.now().UTC()
		}
	})
}

// Set marks taskID completed or not, leaving an existing timestamp alone.
func (t *Tracker) Set(ctx context.Context, userID, taskID string, completed bool) (bool, Completion, error) {
	return t.apply(ctx, userID, taskID, func(c Completion) {
		switch {
		case completed && !c.Has(taskID):
			c[taskID] = t.now().UTC()
		case !completed:
			delete(c, taskID)
		}
	})
}

func (t *Tracker) apply(ctx context.Context, userID, taskID string, mutate func(Completion)) (bool, Completion, error) {
	if taskID == "" {
		return false, nil, ErrEmptyTaskID
	}

	var result Completion
	keys := []string{store.KeyCompletedTasksAt, store.KeyCompletedTasks}
	err := t.kv.UpdateMany(ctx, userID, keys, func(current []string) ([]string, error) {
		c := t.decode(current[0], t.legacyIDs(current[1]))
		mutate(c)
		data, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		ids, err := json.Marshal(c.IDs())
		if err != nil {
			return nil, err
		}
		result = c
		return []string{string(data), string(ids)}, nil
	})
	if err != nil {
		return false, nil, fmt.Errorf("update completion: %w", err)
	}

	done := result.Has(taskID)
	state := "incomplete"
	if done {
		state = "completed"
	}
	metrics.TasksToggled.WithLabelValues(state).Inc()
	return done, result, nil
}

// Percent is round(100 * |completed ∩ tasks| / |tasks|). Ids not in tasks
// are ignored, so the result stays in [0, 100] and only grows as ids are
// added.
func Percent(tasks []journey.Task, completed Completion) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, task := range tasks {
		if completed.Has(task.ID) {
			done++
		}
	}
	p := int(math.Round(100 * float64(done) / float64(len(tasks))))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Summary is the progress of one group of tasks.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
}

// ByCategory groups Percent by task category.
func ByCategory(tasks []journey.Task, completed Completion) map[string]Summary {
	return groupBy(tasks, completed, func(t journey.Task) string { return t.Category })
}

// ByPhase groups Percent by journey phase.
func ByPhase(tasks []journey.Task, completed Completion) map[string]Summary {
	return groupBy(tasks, completed, journey.PhaseOf)
}

func groupBy(tasks []journey.Task, completed Completion, key func(journey.Task) string) map[string]Summary {
	groups := make(map[string][]journey.Task)
	for _, t := range tasks {
		k := key(t)
		groups[k] = append(groups[k], t)
	}
	out := make(map[string]Summary, len(groups))
	for k, group := range groups {
		s := Summary{Total: len(group), Percent: Percent(group, completed)}
		for _, t := range group {
			if completed.Has(t.ID) {
				s.Completed++
			}
		}
		out[k] = s
	}
	return out
}

// TaskStatus is a task with its completion looked up from the set.
type TaskStatus struct {
	journey.Task
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Annotate derives each task's completed flag from the completion set.
func Annotate(tasks []journey.Task, completed Completion) []TaskStatus {
	out := make([]TaskStatus, len(tasks))
	for i, t := range tasks {
		out[i] = TaskStatus{Task: t}
		if at, ok := completed[t.ID]; ok {
			out[i].Completed = true
			if !at.IsZero() {
				ts := at
				out[i].CompletedAt = &ts
			}
		}
	}
	return out
}
