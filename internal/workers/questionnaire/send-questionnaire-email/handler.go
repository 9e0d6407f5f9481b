// internal/workers/questionnaire/send-questionnaire-email/handler.go
package sendquestionnaireemail

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
	"ezrelo/internal/questionnaire"
	"ezrelo/internal/store"
)

const (
	TaskType = "send-questionnaire-email"
)

// Mailer sends plain-text email and returns the provider message id.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

type Handler struct {
	config   *Config
	repo     *questionnaire.Repository
	contexts *movecontext.Store
	mailer   Mailer
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, repo *questionnaire.Repository, contexts *movecontext.Store, mailer Mailer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		repo:     repo,
		contexts: contexts,
		mailer:   mailer,
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

	q, ok, err := h.repo.Load(ctx, input.UserID)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyQuestionnaire, err)
	}
	if !ok {
		return nil, commonerrors.NewQuestionnaireMissingError(input.UserID)
	}

	mc, err := h.contexts.Load(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("move context unavailable for summary", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
		mc = movecontext.MoveContext{}
	}

	req := questionnaire.BuildQuoteRequest(input.UserID, q, mc, nil)
	body, err := questionnaire.RenderSummary(req)
	if err != nil {
		return nil, commonerrors.NewNotificationSendFailedError("email", err)
	}

	recipient := strings.TrimSpace(input.Email)
	if recipient == "" {
		recipient = req.Contact.Email
	}
	if recipient == "" {
		return nil, commonerrors.NewInvalidInputError("no email address in input or questionnaire contact")
	}

	out := &Output{Recipient: recipient, Summary: body}
	if !h.config.Enabled || h.mailer == nil {
		out.Status = StatusDisabled
		h.logger.Info("email delivery disabled, summary rendered only", map[string]interface{}{"userId": input.UserID})
		return out, nil
	}

	id, err := h.mailer.SendText(ctx, recipient, h.config.Subject, body)
	if err != nil {
		return nil, commonerrors.NewNotificationSendFailedError("email", err)
	}
	out.Status = StatusSent
	out.MessageID = id

	h.logger.Info("questionnaire email sent", map[string]interface{}{
		"userId":    input.UserID,
		"messageId": id,
	})
	return out, nil
}
