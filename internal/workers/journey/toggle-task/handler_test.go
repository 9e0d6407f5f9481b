package toggletask

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/journey"
	"ezrelo/internal/progress"
	"ezrelo/internal/store"
)

type journeysFunc func(ctx context.Context, userID string) (*journey.Journey, error)

func (f journeysFunc) Latest(ctx context.Context, userID string) (*journey.Journey, error) {
	return f(ctx, userID)
}

func noJourney(context.Context, string) (*journey.Journey, error) {
	return nil, fmt.Errorf("%w: user", journey.ErrNotFound)
}

func newTestHandler(t *testing.T, journeys Journeys) *Handler {
	t.Helper()
	tracker := progress.NewTracker(store.NewMemoryStore(logger.NewTestLogger(t)), logger.NewTestLogger(t))
	return NewHandler(&Config{Timeout: time.Second}, tracker, journeys, logger.NewTestLogger(t))
}

func TestHandler_Execute_DoubleToggleRestoresState(t *testing.T) {
	h := newTestHandler(t, journeysFunc(noJourney))
	ctx := context.Background()
	defaults := journey.Default()

	first, err := h.execute(ctx, &Input{UserID: "u1", TaskID: defaults[0].ID})
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.Equal(t, []string{defaults[0].ID}, first.CompletedTasks)
	assert.Greater(t, first.Progress, 0)

	second, err := h.execute(ctx, &Input{UserID: "u1", TaskID: defaults[0].ID})
	require.NoError(t, err)
	assert.False(t, second.Completed)
	assert.Empty(t, second.CompletedTasks)
	assert.Equal(t, 0, second.Progress)
}

func TestHandler_Execute_ExplicitState(t *testing.T) {
	h := newTestHandler(t, nil)
	ctx := context.Background()
	yes, no := true, false
	ids := []string{"a", "b"}

	out, err := h.execute(ctx, &Input{UserID: "u1", TaskID: "a", Completed: &yes, TaskIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Progress)

	out, err = h.execute(ctx, &Input{UserID: "u1", TaskID: "a", Completed: &yes, TaskIDs: ids})
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.Equal(t, 50, out.Progress)

	out, err = h.execute(ctx, &Input{UserID: "u1", TaskID: "a", Completed: &no, TaskIDs: ids})
	require.NoError(t, err)
	assert.False(t, out.Completed)
	assert.Equal(t, 0, out.Progress)
}

func TestHandler_Execute_UsesSavedJourney(t *testing.T) {
	saved := &journey.Journey{Tasks: []journey.Task{{ID: "ai-1"}, {ID: "ai-2"}, {ID: "ai-3"}, {ID: "ai-4"}}}
	h := newTestHandler(t, journeysFunc(func(context.Context, string) (*journey.Journey, error) { return saved, nil }))

	out, err := h.execute(context.Background(), &Input{UserID: "u1", TaskID: "ai-3"})
	require.NoError(t, err)
	assert.Equal(t, 25, out.Progress)

	_, err = h.execute(context.Background(), &Input{UserID: "u1", TaskID: journey.Default()[0].ID})
	assert.Equal(t, commonerrors.ErrCodeTaskNotFound, commonerrors.AsStandard(err).Code)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.execute(context.Background(), &Input{TaskID: "a"})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)

	_, err = h.execute(context.Background(), &Input{UserID: "u1"})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)

	_, err = h.execute(context.Background(), &Input{UserID: "u1", TaskID: "nope"})
	assert.Equal(t, commonerrors.ErrCodeTaskNotFound, commonerrors.AsStandard(err).Code)
}
