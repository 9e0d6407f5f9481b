package selectmover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
	"ezrelo/internal/referral"
	"ezrelo/internal/store"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CreateProject(ctx context.Context, userID string, mc movecontext.MoveContext) (string, error) {
	args := m.Called(ctx, userID, mc)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) SelectMover(ctx context.Context, userID, projectID string, mover providers.Provider) (*providers.Selection, error) {
	args := m.Called(ctx, userID, projectID, mover)
	sel, _ := args.Get(0).(*providers.Selection)
	return sel, args.Error(1)
}

type nopPoster struct{}

func (nopPoster) PostJSON(context.Context, string, interface{}, interface{}) error { return nil }

var atlas = providers.Provider{ID: "m-1", Name: "Atlas Van Lines", Website: "https://atlas.example"}

type fixture struct {
	handler  *Handler
	backend  *mockBackend
	kv       store.Store
	contexts *movecontext.Store
	tracker  *referral.Tracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{backend: &mockBackend{}}
	f.kv = store.NewMemoryStore(logger.NewTestLogger(t))
	f.contexts = movecontext.NewStore(f.kv)
	f.tracker = referral.NewTracker(nopPoster{}, "", time.Second, logger.NewTestLogger(t))
	f.handler = NewHandler(&Config{Timeout: time.Second}, f.backend, f.contexts, f.kv, f.tracker, logger.NewTestLogger(t))
	t.Cleanup(f.tracker.Wait)
	return f
}

func TestHandler_Execute_CreatesProjectWhenMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mc := movecontext.New("Austin, TX", "Denver, CO", "2026-07-01")
	require.NoError(t, f.contexts.Save(ctx, "u1", mc))

	f.backend.On("CreateProject", mock.Anything, "u1", mc).Return("proj-9", nil)
	f.backend.On("SelectMover", mock.Anything, "u1", "proj-9", atlas).
		Return(&providers.Selection{ProjectID: "proj-9", MoverID: "m-1", MoverName: "Atlas Van Lines", Status: "selected"}, nil)

	out, err := f.handler.execute(ctx, &Input{UserID: "u1", Mover: atlas})
	require.NoError(t, err)
	assert.Equal(t, "proj-9", out.ProjectID)
	assert.Equal(t, "selected", out.Selection.Status)
	assert.Equal(t, "https://atlas.example", out.MoverURL)
	assert.NotEmpty(t, out.ClickID)
	f.backend.AssertExpectations(t)

	var stored providers.Selection
	ok, err := f.kv.GetJSON(ctx, "u1", store.KeySelectedMover, &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "m-1", stored.MoverID)
}

func TestHandler_Execute_ExistingProject(t *testing.T) {
	f := newFixture(t)
	f.backend.On("SelectMover", mock.Anything, "u1", "proj-1", atlas).
		Return(&providers.Selection{ProjectID: "proj-1", MoverID: "m-1"}, nil)

	out, err := f.handler.execute(context.Background(), &Input{UserID: "u1", ProjectID: "proj-1", Mover: atlas})
	require.NoError(t, err)
	assert.Equal(t, "proj-1", out.ProjectID)
	f.backend.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("missing locations", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Mover: atlas})
		assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)
	})

	t.Run("project backend down", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		mc := movecontext.New("Austin, TX", "Denver, CO", "")
		require.NoError(t, f.contexts.Save(ctx, "u1", mc))
		f.backend.On("CreateProject", mock.Anything, "u1", mc).Return("", errors.New("503"))

		_, err := f.handler.execute(ctx, &Input{UserID: "u1", Mover: atlas})
		assert.Equal(t, commonerrors.ErrCodeBackendUnavailable, commonerrors.AsStandard(err).Code)
	})

	t.Run("selection rejected", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("SelectMover", mock.Anything, "u1", "proj-1", atlas).Return(nil, errors.New("409 conflict"))

		_, err := f.handler.execute(context.Background(), &Input{UserID: "u1", ProjectID: "proj-1", Mover: atlas})
		assert.Equal(t, commonerrors.ErrCodeMoverSelectionFailed, commonerrors.AsStandard(err).Code)

		ok, err := f.kv.GetJSON(context.Background(), "u1", store.KeySelectedMover, &providers.Selection{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no mover", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.handler.execute(context.Background(), &Input{UserID: "u1", ProjectID: "p"})
		assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)
	})
}
