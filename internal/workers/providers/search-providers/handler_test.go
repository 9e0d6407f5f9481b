package searchproviders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ezrelo/internal/assets"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
	"ezrelo/internal/store"
)

type searcherFunc func(ctx context.Context, category providers.Category, q providers.Query) ([]providers.Provider, error)

func (f searcherFunc) Search(ctx context.Context, category providers.Category, q providers.Query) ([]providers.Provider, error) {
	return f(ctx, category, q)
}

type fixture struct {
	handler  *Handler
	kv       store.Store
	contexts *movecontext.Store
	registry *assets.Registry
	calls    int
}

func newFixture(t *testing.T, result []providers.Provider, searchErr error) *fixture {
	t.Helper()
	f := &fixture{registry: assets.NewRegistry()}
	f.kv = store.NewMemoryStore(logger.NewTestLogger(t))
	f.contexts = movecontext.NewStore(f.kv)

	searcher := searcherFunc(func(_ context.Context, _ providers.Category, _ providers.Query) ([]providers.Provider, error) {
		f.calls++
		return result, searchErr
	})
	svc := providers.NewService(searcher, f.kv, providers.ServiceConfig{}, logger.NewTestLogger(t))
	f.handler = NewHandler(&Config{Timeout: time.Second}, svc, f.contexts, f.registry, logger.NewTestLogger(t))
	return f
}

func TestHandler_Execute_SearchesWithStoredContext(t *testing.T) {
	list := []providers.Provider{
		{Name: "Austin Energy", LogoURL: "https://cdn.example/ae.png"},
		{Name: "Pedernales Electric"},
	}
	f := newFixture(t, list, nil)
	ctx := context.Background()
	require.NoError(t, f.contexts.Save(ctx, "u1", movecontext.New("Dallas, TX", "Austin, TX 78701", "")))

	out, err := f.handler.execute(ctx, &Input{UserID: "u1", Category: "utilities"})
	require.NoError(t, err)
	assert.Equal(t, "utilities", out.Category)
	assert.Equal(t, 2, out.ProviderCount)
	assert.Equal(t, "utilities_Austin, TX 78701", out.CacheKey)
	assert.Equal(t, int64(1), out.Sequence)
	assert.False(t, out.FromCache)
	assert.Equal(t, 1, out.LogosRegistered)

	logo, ok := f.registry.Get(assets.KindLogo, "austin energy")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/ae.png", logo.URL)
}

func TestHandler_Execute_UsesCacheWhenAsked(t *testing.T) {
	f := newFixture(t, []providers.Provider{{Name: "Atlas"}}, nil)
	ctx := context.Background()
	in := &Input{UserID: "u1", Category: "moving", FromLocation: "Austin, TX", ToLocation: "Denver, CO"}

	_, err := f.handler.execute(ctx, in)
	require.NoError(t, err)
	require.Equal(t, 1, f.calls)

	useCache := true
	in.UseCache = &useCache
	out, err := f.handler.execute(ctx, in)
	require.NoError(t, err)
	assert.True(t, out.FromCache)
	assert.Equal(t, 1, f.calls, "cached result served without a backend call")
	require.Len(t, out.Providers, 1)
	assert.Equal(t, "Atlas", out.Providers[0].Name)
}

func TestHandler_Execute_FailureLeavesCacheUntouched(t *testing.T) {
	f := newFixture(t, nil, errors.New("connection refused"))
	ctx := context.Background()
	mc := movecontext.New("Austin, TX", "Denver, CO", "")
	previous := []providers.Provider{{Name: "Previous Mover"}}
	require.NoError(t, f.kv.SetJSON(ctx, "u1", providers.CacheKey(providers.CategoryMoving, mc), previous, 0))

	_, err := f.handler.execute(ctx, &Input{UserID: "u1", Category: "moving", FromLocation: mc.From, ToLocation: mc.To})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeSearchFailed, commonerrors.AsStandard(err).Code)

	var cached []providers.Provider
	ok, err := f.kv.GetJSON(ctx, "u1", providers.CacheKey(providers.CategoryMoving, mc), &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Previous Mover", cached[0].Name)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.handler.execute(context.Background(), &Input{Category: "moving"})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)

	_, err = f.handler.execute(context.Background(), &Input{UserID: "u1", Category: "spaceships"})
	assert.Equal(t, commonerrors.ErrCodeUnknownCategory, commonerrors.AsStandard(err).Code)

	_, err = f.handler.execute(context.Background(), &Input{UserID: "u1", Category: "housing"})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code, "no destination anywhere")
	assert.Zero(t, f.calls)
}
