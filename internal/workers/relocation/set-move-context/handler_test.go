package setmovecontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *movecontext.Store) {
	t.Helper()
	contexts := movecontext.NewStore(store.NewMemoryStore(logger.NewTestLogger(t)))
	return NewHandler(&Config{Timeout: time.Second}, contexts, logger.NewTestLogger(t)), contexts
}

func TestHandler_Execute_SavesContext(t *testing.T) {
	h, contexts := newTestHandler(t)
	ctx := context.Background()

	out, err := h.execute(ctx, &Input{
		UserID:       "u1",
		FromLocation: "123 Main St, Austin, TX 78701",
		ToLocation:   "Denver, CO",
		MoveDate:     "2026-07-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Denver", out.Destination.City)
	assert.Equal(t, "CO", out.Destination.State)
	assert.True(t, out.Searchable)
	assert.Equal(t, "78701", out.Origin.Zip)
	assert.Contains(t, out.MoveQuery, "date=2026-07-01")

	stored, err := contexts.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, out.MoveContext, stored)
}

func TestHandler_Execute_PartialUpdateKeepsStoredFields(t *testing.T) {
	h, contexts := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, contexts.Save(ctx, "u1", movecontext.New("Austin, TX", "Denver, CO", "2026-07-01")))

	out, err := h.execute(ctx, &Input{UserID: "u1", MoveDate: "2026-08-15"})
	require.NoError(t, err)
	assert.Equal(t, movecontext.New("Austin, TX", "Denver, CO", "2026-08-15"), out.MoveContext)
}

func TestHandler_Execute_QueryParameters(t *testing.T) {
	h, _ := newTestHandler(t)

	out, err := h.execute(context.Background(), &Input{
		UserID:     "u1",
		ToLocation: "Seattle, WA",
		Query:      "?from=Portland%2C+OR&to=Boise%2C+ID&date=2026-09-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Portland, OR", out.FromLocation)
	assert.Equal(t, "Seattle, WA", out.ToLocation, "explicit fields win over query")
	assert.Equal(t, "2026-09-01", out.MoveDate)
}

func TestHandler_Execute_RequiresUser(t *testing.T) {
	h, _ := newTestHandler(t)
	_, err := h.execute(context.Background(), &Input{FromLocation: "Austin, TX"})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)
}
