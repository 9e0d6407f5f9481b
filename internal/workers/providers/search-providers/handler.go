// internal/workers/providers/search-providers/handler.go
package searchproviders

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/assets"
	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
)

const (
	TaskType = "search-providers"
)

type Handler struct {
	config   *Config
	search   *providers.Service
	contexts *movecontext.Store
	assets   *assets.Registry
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, search *providers.Service, contexts *movecontext.Store, registry *assets.Registry, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		search:   search,
		contexts: contexts,
		assets:   registry,
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
	category, err := providers.ParseCategory(input.Category)
	if err != nil {
		return nil, commonerrors.NewUnknownCategoryError(input.Category)
	}

	mc, err := h.contexts.Resolve(ctx, input.UserID, movecontext.New(input.FromLocation, input.ToLocation, input.MoveDate))
	if err != nil {
		h.logger.Warn("stored move context unavailable", map[string]interface{}{"userId": input.UserID, "error": err.Error()})
		mc = movecontext.New(input.FromLocation, input.ToLocation, input.MoveDate)
	}

	useCache := h.config.PreferCache
	if input.UseCache != nil {
		useCache = *input.UseCache
	}
	if useCache {
		if list, ok, err := h.search.Cached(ctx, input.UserID, category, mc); err == nil && ok {
			h.logger.Info("serving cached providers", map[string]interface{}{
				"userId":   input.UserID,
				"category": string(category),
				"count":    len(list),
			})
			return &Output{
				Category:        string(category),
				Providers:       list,
				ProviderCount:   len(list),
				CacheKey:        providers.CacheKey(category, mc),
				FromCache:       true,
				LogosRegistered: h.registerLogos(list),
			}, nil
		}
	}

	res, err := h.search.Search(ctx, input.UserID, category, mc)
	if err != nil {
		return nil, err
	}

	h.logger.Info("provider search completed", map[string]interface{}{
		"userId":   input.UserID,
		"category": string(category),
		"count":    len(res.Providers),
		"sequence": res.Sequence,
	})

	return &Output{
		Category:        string(res.Category),
		Providers:       res.Providers,
		ProviderCount:   len(res.Providers),
		CacheKey:        res.CacheKey,
		Sequence:        res.Sequence,
		LogosRegistered: h.registerLogos(res.Providers),
	}, nil
}

func (h *Handler) registerLogos(list []providers.Provider) int {
	if h.assets == nil {
		return 0
	}
	n := 0
	for _, p := range list {
		if p.LogoURL == "" {
			continue
		}
		if h.assets.Register(assets.Asset{Kind: assets.KindLogo, Name: p.Name, URL: p.LogoURL}) {
			n++
		}
	}
	return n
}
