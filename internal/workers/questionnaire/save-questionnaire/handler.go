// internal/workers/questionnaire/save-questionnaire/handler.go
package savequestionnaire

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/questionnaire"
	"ezrelo/internal/store"
)

const (
	TaskType = "save-questionnaire"
)

type Handler struct {
	config *Config
	repo   *questionnaire.Repository
	errors *commonerrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, repo *questionnaire.Repository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		repo:   repo,
		errors: commonerrors.NewErrorHandler(log),
		logger: log,
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
	if input.Questionnaire == nil {
		return nil, commonerrors.NewInvalidInputError("questionnaire is required")
	}

	saved, err := h.repo.Save(ctx, input.UserID, input.Questionnaire)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyQuestionnaire, err)
	}

	requested, err := h.repo.QuotesRequested(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("failed to load quotesRequested", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
	}
	if requested == nil {
		requested = []string{}
	}

	inv := questionnaire.InventorySummary(saved)
	contact := questionnaire.ContactOf(saved)
	h.logger.Info("questionnaire saved", map[string]interface{}{
		"userId":     input.UserID,
		"rooms":      len(inv.Rooms),
		"totalItems": inv.TotalItems,
	})

	return &Output{
		SavedAt:         saved.SavedAt().Format(time.RFC3339),
		Inventory:       inv,
		Contact:         contact,
		HasContact:      contact.Email != "" || contact.Phone != "",
		QuotesRequested: requested,
	}, nil
}
