// internal/workers/relocation/set-move-context/handler.go
package setmovecontext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/store"
)

const (
	TaskType = "set-move-context"
)

type Handler struct {
	config   *Config
	contexts *movecontext.Store
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, contexts *movecontext.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
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

	incoming := movecontext.New(input.FromLocation, input.ToLocation, input.MoveDate)
	if input.Query != "" {
		q, err := url.ParseQuery(strings.TrimPrefix(input.Query, "?"))
		if err != nil {
			return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("query: %v", err))
		}
		incoming = incoming.Merge(movecontext.FromQuery(q))
	}

	if incoming.MoveDate != "" {
		if _, err := time.Parse("2006-01-02", incoming.MoveDate); err != nil {
			h.logger.Debug("move date is not ISO formatted", map[string]interface{}{"moveDate": incoming.MoveDate})
		}
	}

	mc, err := h.contexts.Resolve(ctx, input.UserID, incoming)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyFromLocation, err)
	}
	if err := h.contexts.Save(ctx, input.UserID, mc); err != nil {
		return nil, commonerrors.NewPersistenceFailedError(store.KeyFromLocation, err)
	}

	dest := mc.Destination()
	h.logger.Info("move context saved", map[string]interface{}{
		"userId":   input.UserID,
		"from":     mc.From,
		"to":       mc.To,
		"moveDate": mc.MoveDate,
	})

	return &Output{
		MoveContext:  mc,
		FromLocation: mc.From,
		ToLocation:   mc.To,
		MoveDate:     mc.MoveDate,
		MoveQuery:    mc.Query().Encode(),
		Origin:       mc.Origin(),
		Destination:  dest,
		Searchable:   dest.Searchable(),
	}, nil
}
