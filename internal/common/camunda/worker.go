// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"ezrelo/internal/common/config"
	"ezrelo/internal/common/errors"
	"ezrelo/internal/common/metrics"
)

// HandlerFunc is the signature every job handler exposes.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Tracer starts spans around job execution.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, trace.Span)
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// Instrument wraps handler with the active-jobs gauge, the duration histogram
// and a span per job.
func Instrument(taskType string, handler HandlerFunc, tracer Tracer) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx := context.Background()
		var span trace.Span
		if tracer != nil {
			ctx, span = tracer.StartSpan(ctx, taskType, map[string]string{"taskType": taskType})
			defer span.End()
		}

		handler(client, job)

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		if tracer != nil {
			tracer.RecordJobProcessed(ctx, taskType, "handled")
			tracer.RecordJobDuration(ctx, taskType, elapsed, "handled")
		}
	}
}

// InputValidator checks raw job variables for a task type.
type InputValidator interface {
	ValidateInput(taskType, variables string) error
}

// WithInputValidation rejects jobs whose variables fail the task type's input
// schema before handler runs.
func WithInputValidation(taskType string, v InputValidator, eh *errors.ErrorHandler, handler HandlerFunc) HandlerFunc {
	if v == nil {
		return handler
	}
	return func(client worker.JobClient, job entities.Job) {
		if err := v.ValidateInput(taskType, job.Variables); err != nil {
			eh.HandleJobError(context.Background(), client, job, errors.NewInvalidInputError(err.Error()))
			return
		}
		handler(client, job)
	}
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler HandlerFunc, log *zap.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return jw
}

// CompleteJob completes job with vars, retrying transient gateway errors.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, vars interface{}) error {
	err := executeWithRetry(ctx, DefaultRetryConfig, "complete-job", func(ctx context.Context) error {
		cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(vars)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	})
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(job.Type, "COMPLETE_FAILED").Inc()
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	return nil
}
