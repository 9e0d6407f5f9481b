// internal/workers/providers/filter-providers/handler.go
package filterproviders

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
)

const (
	TaskType = "filter-providers"
)

// Cache reads previously stored search results.
type Cache interface {
	Cached(ctx context.Context, userID string, category providers.Category, mc movecontext.MoveContext) ([]providers.Provider, bool, error)
}

type Handler struct {
	config   *Config
	cache    Cache
	contexts *movecontext.Store
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, cache Cache, contexts *movecontext.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		cache:    cache,
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
	if input.MinPrice > 0 && input.MaxPrice > 0 && input.MinPrice > input.MaxPrice {
		return nil, commonerrors.NewInvalidInputError("minPrice is above maxPrice")
	}

	list := input.Providers
	fromCache := false
	if list == nil {
		cached, err := h.loadCached(ctx, input)
		if err != nil {
			return nil, err
		}
		list, fromCache = cached, true
	}

	matched := providers.Filter(list, input.Criteria)
	size := input.PageSize
	if size <= 0 {
		size = h.config.PageSize
	}
	page := providers.Paginate(matched, input.Page, size)

	h.logger.Debug("providers filtered", map[string]interface{}{
		"userId":  input.UserID,
		"input":   len(list),
		"matched": len(matched),
		"page":    page.Page,
	})

	return &Output{
		Providers:  page.Items,
		Matched:    len(matched),
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		FromCache:  fromCache,
	}, nil
}

// loadCached treats a cache miss as an empty list.
func (h *Handler) loadCached(ctx context.Context, input *Input) ([]providers.Provider, error) {
	category, err := providers.ParseCategory(input.Category)
	if err != nil {
		return nil, commonerrors.NewUnknownCategoryError(input.Category)
	}
	mc := movecontext.New(input.FromLocation, input.ToLocation, "")
	if h.contexts != nil {
		if resolved, err := h.contexts.Resolve(ctx, input.UserID, mc); err == nil {
			mc = resolved
		}
	}

	list, ok, err := h.cache.Cached(ctx, input.UserID, category, mc)
	if err != nil {
		h.logger.Warn("provider cache unavailable", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
		return []providers.Provider{}, nil
	}
	if !ok {
		return []providers.Provider{}, nil
	}
	return list, nil
}
