// internal/workers/journey/toggle-task/handler.go
package toggletask

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/journey"
	"ezrelo/internal/progress"
	"ezrelo/internal/store"
)

const (
	TaskType = "toggle-task"
)

// Journeys looks up the user's current task list.
type Journeys interface {
	Latest(ctx context.Context, userID string) (*journey.Journey, error)
}

type Handler struct {
	config   *Config
	tracker  *progress.Tracker
	journeys Journeys
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, tracker *progress.Tracker, journeys Journeys, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		tracker:  tracker,
		journeys: journeys,
		errors:   commonerrors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.NewInputParseFailedError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(context.Background(), client, job, err)
		return
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, commonerrors.NewInvalidInputError("userId is required")
	}
	if strings.TrimSpace(input.TaskID) == "" {
		return nil, commonerrors.NewInvalidInputError("taskId is required")
	}

	tasks := h.taskList(ctx, input)
	if _, ok := journey.Find(tasks, input.TaskID); !ok {
		return nil, commonerrors.NewTaskNotFoundError(input.TaskID)
	}

	var (
		done      bool
		completed progress.Completion
		err       error
	)
	if input.Completed != nil {
		done, completed, err = h.tracker.Set(ctx, input.UserID, input.TaskID, *input.Completed)
	} else {
		done, completed, err = h.tracker.Toggle(ctx, input.UserID, input.TaskID)
	}
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyCompletedTasks, err)
	}

	pct := progress.Percent(tasks, completed)
	h.logger.Info("task toggled", map[string]interface{}{
		"userId":    input.UserID,
		"taskId":    input.TaskID,
		"completed": done,
		"progress":  pct,
	})

	return &Output{
		TaskID:         input.TaskID,
		Completed:      done,
		CompletedTasks: completed.IDs(),
		Progress:       pct,
	}, nil
}

// taskList prefers ids from the job, then the saved journey, then the
// built-in checklist.
func (h *Handler) taskList(ctx context.Context, input *Input) []journey.Task {
	if len(input.TaskIDs) > 0 {
		tasks := make([]journey.Task, len(input.TaskIDs))
		for i, id := range input.TaskIDs {
			tasks[i] = journey.Task{ID: id}
		}
		return tasks
	}
	if h.journeys != nil {
		j, err := h.journeys.Latest(ctx, input.UserID)
		switch {
		case err == nil && len(j.Tasks) > 0:
			return j.Tasks
		case err != nil && !errors.Is(err, journey.ErrNotFound):
			h.logger.Warn("failed to load journey", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
		}
	}
	return journey.Default()
}
