// internal/workers/providers/track-referral/handler.go
package trackreferral

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/referral"
)

const (
	TaskType = "track-referral"
)

var validActions = map[string]bool{
	referral.ActionClick:  true,
	referral.ActionCall:   true,
	referral.ActionSelect: true,
	referral.ActionQuote:  true,
}

type Handler struct {
	config  *Config
	tracker *referral.Tracker
	errors  *commonerrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, tracker *referral.Tracker, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		tracker: tracker,
		errors:  commonerrors.NewErrorHandler(log),
		logger:  log,
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

// execute never waits on the tracking post; the job completes with the
// navigation target whether or not attribution succeeds.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ProviderName) == "" && input.ProviderID == "" {
		return nil, commonerrors.NewInvalidInputError("provider or providerId is required")
	}

	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action == "" {
		action = referral.ActionClick
	}
	if !validActions[action] {
		return nil, commonerrors.NewInvalidInputError("unknown action: " + input.Action)
	}

	url, clickID := h.tracker.Open(ctx, referral.Click{
		UserID:       input.UserID,
		ProviderName: input.ProviderName,
		ProviderID:   input.ProviderID,
		Category:     input.Category,
		Action:       action,
		Website:      input.Website,
		ReferralURL:  input.ReferralURL,
		Context:      input.Context,
	})

	out := &Output{URL: url, ClickID: clickID, Action: action}
	if action == referral.ActionCall {
		out.Phone = input.Phone
	}
	if url == "" && action == referral.ActionClick {
		h.logger.Warn("provider has no website", map[string]interface{}{"provider": input.ProviderName})
	}
	return out, nil
}
