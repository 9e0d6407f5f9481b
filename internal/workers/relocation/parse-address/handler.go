// internal/workers/relocation/parse-address/handler.go
package parseaddress

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/address"
	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
)

const (
	TaskType = "parse-address"
)

// Verifier confirms a parsed address with the backend.
type Verifier interface {
	Verify(ctx context.Context, a address.Address) (address.Verification, error)
}

type Handler struct {
	config   *Config
	verifier Verifier
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, verifier Verifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		verifier: verifier,
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
	raw := strings.TrimSpace(input.Address)
	if raw == "" {
		return nil, commonerrors.NewInvalidInputError("address is required")
	}

	parsed := address.Parse(raw)
	out := &Output{ParsedAddress: parsed, Role: input.Role}

	if !parsed.Searchable() {
		withFallback := parsed.WithFallback(h.config.FallbackCity, h.config.FallbackState)
		out.UsedFallback = withFallback != parsed
		out.ParsedAddress = withFallback
	}
	out.Searchable = out.ParsedAddress.Searchable()

	if out.ParsedAddress == (address.Address{}) {
		return nil, commonerrors.NewAddressUnparseableError(raw)
	}

	if input.Verify && h.config.VerifyEnabled && h.verifier != nil {
		v, err := h.verifier.Verify(ctx, out.ParsedAddress)
		if err != nil {
			h.logger.Warn("address verification failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  commonerrors.NewAddressVerifyFailedError(err).Error(),
			})
		} else {
			out.ParsedAddress = v.Address
			out.Verified = v.Verified
			out.Searchable = out.ParsedAddress.Searchable()
		}
	}

	h.logger.Info("address parsed", map[string]interface{}{
		"userId":     input.UserID,
		"role":       input.Role,
		"city":       out.ParsedAddress.City,
		"state":      out.ParsedAddress.State,
		"searchable": out.Searchable,
		"verified":   out.Verified,
	})

	return out, nil
}
