// internal/workers/providers/select-mover/handler.go
package selectmover

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
	"ezrelo/internal/referral"
	"ezrelo/internal/store"
)

const (
	TaskType = "select-mover"
)

// MoverBackend is the moving-project API.
type MoverBackend interface {
	CreateProject(ctx context.Context, userID string, mc movecontext.MoveContext) (string, error)
	SelectMover(ctx context.Context, userID, projectID string, mover providers.Provider) (*providers.Selection, error)
}

type Handler struct {
	config   *Config
	backend  MoverBackend
	contexts *movecontext.Store
	kv       store.Store
	tracker  *referral.Tracker
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, backend MoverBackend, contexts *movecontext.Store, kv store.Store, tracker *referral.Tracker, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		backend:  backend,
		contexts: contexts,
		kv:       kv,
		tracker:  tracker,
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
	if input.Mover.ID == "" && strings.TrimSpace(input.Mover.Name) == "" {
		return nil, commonerrors.NewInvalidInputError("mover id or name is required")
	}

	projectID := input.ProjectID
	if projectID == "" {
		mc, err := h.contexts.Load(ctx, input.UserID)
		if err != nil {
			return nil, commonerrors.NewPersistenceFailedError(store.KeyFromLocation, err)
		}
		if mc.From == "" || mc.To == "" {
			return nil, commonerrors.NewInvalidInputError("a moving project needs both locations")
		}
		projectID, err = h.backend.CreateProject(ctx, input.UserID, mc)
		if err != nil {
			return nil, commonerrors.NewBackendUnavailableError("/api/moving-project", err)
		}
		h.logger.Info("moving project created", map[string]interface{}{"userId": input.UserID, "projectId": projectID})
	}

	selection, err := h.backend.SelectMover(ctx, input.UserID, projectID, input.Mover)
	if err != nil {
		return nil, commonerrors.NewMoverSelectionFailedError(err)
	}

	if err := h.kv.SetJSON(ctx, input.UserID, store.KeySelectedMover, selection, 0); err != nil {
		h.logger.Warn("failed to persist selected mover", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
	}

	url, clickID := h.tracker.Open(ctx, referral.Click{
		UserID:       input.UserID,
		ProviderName: input.Mover.Name,
		ProviderID:   input.Mover.ID,
		Category:     string(providers.CategoryMoving),
		Action:       referral.ActionSelect,
		Website:      input.Mover.Website,
		ReferralURL:  input.Mover.ReferralURL,
		Context:      map[string]string{"projectId": projectID},
	})

	h.logger.Info("mover selected", map[string]interface{}{
		"userId":    input.UserID,
		"projectId": projectID,
		"moverId":   selection.MoverID,
	})

	return &Output{
		ProjectID: projectID,
		Selection: *selection,
		ClickID:   clickID,
		MoverURL:  url,
	}, nil
}
