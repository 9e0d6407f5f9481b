// internal/workers/journey/journey-progress/handler.go
package journeyprogress

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
	TaskType = "journey-progress"

	sourceInput = "input"
)

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

	tasks, source, err := h.resolveTasks(ctx, input)
	if err != nil {
		return nil, err
	}

	completed, err := h.tracker.Load(ctx, input.UserID)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyCompletedTasksAt, err)
	}

	annotated := progress.Annotate(tasks, completed)
	done := 0
	for _, t := range annotated {
		if t.Completed {
			done++
		}
	}

	return &Output{
		Progress:       progress.Percent(tasks, completed),
		CompletedCount: done,
		TotalCount:     len(tasks),
		JourneySource:  source,
		ByCategory:     progress.ByCategory(tasks, completed),
		ByPhase:        progress.ByPhase(tasks, completed),
		Tasks:          annotated,
	}, nil
}

func (h *Handler) resolveTasks(ctx context.Context, input *Input) ([]journey.Task, string, error) {
	if len(input.Tasks) > 0 {
		return input.Tasks, sourceInput, nil
	}
	if h.journeys != nil {
		j, err := h.journeys.Latest(ctx, input.UserID)
		switch {
		case err == nil:
			return j.Tasks, j.Source, nil
		case !errors.Is(err, journey.ErrNotFound):
			return nil, "", commonerrors.NewPersistenceFailedError("journeys", err)
		}
	}
	return journey.Default(), journey.SourceDefault, nil
}
