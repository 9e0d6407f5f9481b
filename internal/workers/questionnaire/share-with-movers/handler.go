// internal/workers/questionnaire/share-with-movers/handler.go
package sharewithmovers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
	"ezrelo/internal/questionnaire"
	"ezrelo/internal/referral"
	"ezrelo/internal/store"
)

const (
	TaskType = "share-with-movers"
)

type Poster interface {
	PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error
}

// Texter sends an SMS and returns the provider message id.
type Texter interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config   *Config
	poster   Poster
	repo     *questionnaire.Repository
	contexts *movecontext.Store
	tracker  *referral.Tracker
	texter   Texter
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, poster Poster, repo *questionnaire.Repository, contexts *movecontext.Store, tracker *referral.Tracker, texter Texter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		poster:   poster,
		repo:     repo,
		contexts: contexts,
		tracker:  tracker,
		texter:   texter,
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
	ids := moverIDs(input.Movers)
	if len(ids) == 0 {
		return nil, commonerrors.NewInvalidInputError("at least one mover is required")
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
		return nil, commonerrors.NewPersistenceFailedError(store.KeyToLocation, err)
	}

	req := questionnaire.BuildQuoteRequest(input.UserID, q, mc, ids)
	var resp shareResponse
	if err := h.poster.PostJSON(ctx, h.config.Endpoint, req, &resp); err != nil {
		return nil, commonerrors.NewBackendUnavailableError(h.config.Endpoint, err)
	}

	requested, err := h.repo.MarkQuoteRequested(ctx, input.UserID, ids...)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyQuotesRequested, err)
	}

	out := &Output{
		ShareID:         resp.ShareID,
		SharedWith:      ids,
		Accepted:        resp.Accepted,
		QuotesRequested: requested,
		ClickIDs:        h.trackQuotes(ctx, input.UserID, input.Movers),
	}
	out.SMSStatus, out.SMSMessageID = h.notify(ctx, input, req.Contact.Phone, len(ids))

	h.logger.Info("questionnaire shared with movers", map[string]interface{}{
		"userId":    input.UserID,
		"movers":    len(ids),
		"shareId":   resp.ShareID,
		"smsStatus": out.SMSStatus,
	})
	return out, nil
}

func (h *Handler) trackQuotes(ctx context.Context, userID string, movers []providers.Provider) []string {
	if h.tracker == nil {
		return []string{}
	}
	clickIDs := make([]string, 0, len(movers))
	for _, m := range movers {
		clickIDs = append(clickIDs, h.tracker.Track(ctx, referral.Click{
			UserID:       userID,
			ProviderName: m.Name,
			ProviderID:   m.ID,
			Category:     string(providers.CategoryMoving),
			Action:       referral.ActionQuote,
			Website:      m.Website,
			ReferralURL:  m.ReferralURL,
		}))
	}
	return clickIDs
}

// notify texts a confirmation. SMS problems never fail the share.
func (h *Handler) notify(ctx context.Context, input *Input, contactPhone string, movers int) (string, string) {
	if !input.NotifySMS {
		return SMSStatusSkipped, ""
	}
	if !h.config.SMSEnabled || h.texter == nil {
		return SMSStatusDisabled, ""
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		phone = contactPhone
	}
	if phone == "" {
		return SMSStatusSkipped, ""
	}

	msg := fmt.Sprintf("Ezrelo: your moving details were shared with %d mover(s). Expect quotes soon.", movers)
	id, err := h.texter.SendSMS(ctx, phone, msg)
	if err != nil {
		h.logger.Warn("sms notification failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  commonerrors.NewNotificationSendFailedError("sms", err).Details,
		})
		return SMSStatusFailed, ""
	}
	return SMSStatusSent, id
}

// moverIDs prefers the backend id and falls back to the display name.
func moverIDs(movers []providers.Provider) []string {
	ids := make([]string, 0, len(movers))
	seen := make(map[string]bool, len(movers))
	for _, m := range movers {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			id = strings.TrimSpace(m.Name)
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
