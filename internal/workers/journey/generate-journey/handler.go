// internal/workers/journey/generate-journey/handler.go
package generatejourney

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/journey"
	"ezrelo/internal/movecontext"
)

const (
	TaskType = "generate-journey"
)

// Planner produces an AI task plan.
type Planner interface {
	Generate(ctx context.Context, userID string, mc movecontext.MoveContext, prefs map[string]interface{}) ([]journey.Task, error)
}

// Journeys persists generated journeys.
type Journeys interface {
	Save(ctx context.Context, j *journey.Journey) error
}

type Handler struct {
	config   *Config
	planner  Planner
	journeys Journeys
	contexts *movecontext.Store
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, planner Planner, journeys Journeys, contexts *movecontext.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		planner:  planner,
		journeys: journeys,
		contexts: contexts,
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

	mc := movecontext.New(input.FromLocation, input.ToLocation, input.MoveDate)
	if resolved, err := h.contexts.Resolve(ctx, input.UserID, mc); err == nil {
		mc = resolved
	} else {
		h.logger.Warn("stored move context unavailable", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
	}

	useAI := h.config.AIEnabled && h.planner != nil
	if input.UseAI != nil {
		useAI = useAI && *input.UseAI
	}

	j := &journey.Journey{
		UserID:       input.UserID,
		Source:       journey.SourceDefault,
		FromLocation: mc.From,
		ToLocation:   mc.To,
		MoveDate:     mc.MoveDate,
	}
	out := &Output{}

	if useAI {
		tasks, err := h.planner.Generate(ctx, input.UserID, mc, input.Preferences)
		switch {
		case err == nil && len(tasks) > 0:
			j.Tasks, j.Source = tasks, journey.SourceAI
		case !h.config.FallbackToDefault:
			if err == nil {
				err = commonerrors.NewJourneyPlanInvalidError("plan has no tasks")
			}
			return nil, err
		default:
			reason := "empty plan"
			if err != nil {
				reason = string(commonerrors.AsStandard(err).Code)
			}
			h.logger.Warn("AI journey unavailable, using default checklist", map[string]interface{}{
				"userId": input.UserID,
				"reason": reason,
			})
			out.FallbackReason = reason
		}
	}
	if j.Tasks == nil {
		j.Tasks = journey.Default()
	}

	if h.journeys != nil {
		if err := h.journeys.Save(ctx, j); err != nil {
			return nil, commonerrors.NewPersistenceFailedError("journeys", err)
		}
	}

	h.logger.Info("journey ready", map[string]interface{}{
		"userId":    input.UserID,
		"journeyId": j.ID,
		"source":    j.Source,
		"taskCount": len(j.Tasks),
	})

	out.JourneyID = j.ID
	out.Source = j.Source
	out.Tasks = j.Tasks
	out.TaskIDs = journey.TaskIDs(j.Tasks)
	out.TaskCount = len(j.Tasks)
	return out, nil
}
