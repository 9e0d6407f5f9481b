package camunda

import (
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ezrelo/internal/common/metrics"
)

type validatorFunc func(taskType, variables string) error

func (f validatorFunc) ValidateInput(taskType, variables string) error { return f(taskType, variables) }

func testJob(taskType, vars string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: taskType, Variables: vars}}
}

func TestInstrument_RunsHandlerAndObservesDuration(t *testing.T) {
	called := false
	h := Instrument("instrument-test", func(worker.JobClient, entities.Job) { called = true }, nil)

	h(nil, testJob("instrument-test", "{}"))

	assert.True(t, called)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues("instrument-test")))
}

func TestWithInputValidation_PassesValidJobs(t *testing.T) {
	var seen string
	v := validatorFunc(func(taskType, variables string) error {
		seen = taskType + " " + variables
		return nil
	})

	called := false
	h := WithInputValidation("parse-address", v, nil, func(worker.JobClient, entities.Job) { called = true })
	h(nil, testJob("parse-address", `{"address":"Austin, TX"}`))

	assert.True(t, called)
	assert.Equal(t, `parse-address {"address":"Austin, TX"}`, seen)
}

func TestWithInputValidation_NilValidator(t *testing.T) {
	called := false
	h := WithInputValidation("x", nil, nil, func(worker.JobClient, entities.Job) { called = true })
	h(nil, testJob("x", "{}"))
	assert.True(t, called)
}
