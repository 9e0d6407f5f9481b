package journeyprogress

import (
	"context"
	"errors"
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

func setup(t *testing.T, journeys Journeys) (*Handler, *progress.Tracker) {
	t.Helper()
	tracker := progress.NewTracker(store.NewMemoryStore(logger.NewTestLogger(t)), logger.NewTestLogger(t))
	return NewHandler(&Config{Timeout: time.Second}, tracker, journeys, logger.NewTestLogger(t)), tracker
}

func TestHandler_Execute_InputTasks(t *testing.T) {
	h, tracker := setup(t, nil)
	ctx := context.Background()
	tasks := []journey.Task{
		{ID: "a", Category: "moving", Week: 1},
		{ID: "b", Category: "moving", Week: 5},
		{ID: "c", Category: "utilities", Week: 5},
	}

	_, _, err := tracker.Toggle(ctx, "u1", "a")
	require.NoError(t, err)
	_, _, err = tracker.Toggle(ctx, "u1", "not-in-plan")
	require.NoError(t, err)

	out, err := h.execute(ctx, &Input{UserID: "u1", Tasks: tasks})
	require.NoError(t, err)
	assert.Equal(t, 33, out.Progress)
	assert.Equal(t, 1, out.CompletedCount)
	assert.Equal(t, 3, out.TotalCount)
	assert.Equal(t, "input", out.JourneySource)
	assert.Equal(t, progress.Summary{Total: 2, Completed: 1, Percent: 50}, out.ByCategory["moving"])
	assert.Equal(t, progress.Summary{Total: 1, Completed: 1, Percent: 100}, out.ByPhase[journey.PhasePlanning])
	require.Len(t, out.Tasks, 3)
	assert.True(t, out.Tasks[0].Completed)
	assert.NotNil(t, out.Tasks[0].CompletedAt)
	assert.False(t, out.Tasks[1].Completed)
}

func TestHandler_Execute_SavedJourney(t *testing.T) {
	saved := &journey.Journey{Source: journey.SourceAI, Tasks: []journey.Task{{ID: "x"}, {ID: "y"}}}
	h, tracker := setup(t, journeysFunc(func(context.Context, string) (*journey.Journey, error) { return saved, nil }))

	_, _, err := tracker.Set(context.Background(), "u1", "y", true)
	require.NoError(t, err)

	out, err := h.execute(context.Background(), &Input{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, journey.SourceAI, out.JourneySource)
	assert.Equal(t, 50, out.Progress)
}

func TestHandler_Execute_DefaultWhenNoJourney(t *testing.T) {
	h, _ := setup(t, journeysFunc(func(context.Context, string) (*journey.Journey, error) {
		return nil, fmt.Errorf("%w: u1", journey.ErrNotFound)
	}))

	out, err := h.execute(context.Background(), &Input{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, journey.SourceDefault, out.JourneySource)
	assert.Equal(t, len(journey.Default()), out.TotalCount)
	assert.Equal(t, 0, out.Progress)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, _ := setup(t, journeysFunc(func(context.Context, string) (*journey.Journey, error) {
		return nil, errors.New("db down")
	}))

	_, err := h.execute(context.Background(), &Input{UserID: "u1"})
	assert.Equal(t, commonerrors.ErrCodePersistenceFailed, commonerrors.AsStandard(err).Code)

	_, err = h.execute(context.Background(), &Input{})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)
}
