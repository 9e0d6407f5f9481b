// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ezrelo/internal/common/config"
	"ezrelo/internal/common/database"
	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/journey"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/progress"
	"ezrelo/internal/providers"
	"ezrelo/internal/questionnaire"
	"ezrelo/internal/store"
	"ezrelo/pkg/registry"
)

// The suite talks to a real Postgres and Redis. Set EZRELO_E2E=1 to run it,
// e.g. against `docker compose up postgres redis`.
func requireE2E(t *testing.T) {
	t.Helper()
	if os.Getenv("EZRELO_E2E") == "" {
		t.Skip("set EZRELO_E2E=1 to run end-to-end tests")
	}
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
}

func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

type environment struct {
	kv       store.Store
	journeys *journey.Repository
	backend  *httptest.Server
}

func setupEnvironment(t *testing.T) *environment {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	pg, err := database.NewPostgres(config.PostgresConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           port,
		Database:       getEnv("DB_NAME", "ezrelo"),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", "postgres"),
		MaxConnections: 5,
		MaxIdle:        1,
		SSLMode:        "disable",
	})
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	journeys := journey.NewRepository(pg.DB)
	require.NoError(t, journeys.EnsureSchema(ctx))

	rc, err := database.NewRedis(config.RedisConfig{Address: getEnv("REDIS_ADDRESS", "localhost:6379")})
	require.NoError(t, err, "Redis client creation failed")
	require.NoError(t, rc.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { rc.Close() })

	// per-run prefix keeps runs independent without flushing the database
	prefix := fmt.Sprintf("ezrelo-e2e-%d", time.Now().UnixNano())

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/moving-companies":
			w.Write([]byte(`{"companies":[
				{"id":"m1","name":"Two Movers","rating":"4.6","estimatedCost":"$1,200 - $1,800","website":"https://two.example.com"},
				{"id":"m2","name":"Budget Haul","rating":3.9,"estimatedCost":"$800 - $1,000"}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	return &environment{
		kv:       store.NewRedisStore(rc.Client, prefix, log),
		journeys: journeys,
		backend:  backend,
	}
}

func TestRelocationFlow(t *testing.T) {
	requireE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env := setupEnvironment(t)
	log := logger.NewTestLogger(t)
	userID := "e2e-user"

	// 1. Move context from the landing page query
	contexts := movecontext.NewStore(env.kv)
	mc := movecontext.New("123 Main St, Austin, TX 78701", "3201 Stonecrop Trail Argyle TX 76226", "2026-08-01")
	require.NoError(t, contexts.Save(ctx, userID, mc))

	resolved, err := contexts.Resolve(ctx, userID, movecontext.MoveContext{})
	require.NoError(t, err)
	assert.Equal(t, mc, resolved)

	// 2. Moving company search is cached in Redis
	client := commonhttp.NewClient(env.backend.URL, "", 5*time.Second)
	search := providers.NewService(providers.NewHTTPSearcher(client, nil), env.kv, providers.ServiceConfig{}, log)

	result, err := search.Search(ctx, userID, providers.CategoryMoving, resolved)
	require.NoError(t, err)
	require.Len(t, result.Providers, 2)

	cached, ok, err := search.Cached(ctx, userID, providers.CategoryMoving, resolved)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.Providers, cached)

	affordable := providers.Filter(cached, providers.Criteria{MaxPrice: 1000})
	require.Len(t, affordable, 1)
	assert.Equal(t, "Budget Haul", affordable[0].Name)

	// 3. Journey saved in Postgres and progress tracked in Redis
	j := &journey.Journey{
		UserID:       userID,
		Source:       journey.SourceDefault,
		FromLocation: resolved.From,
		ToLocation:   resolved.To,
		MoveDate:     resolved.MoveDate,
		Tasks:        journey.Default(),
	}
	require.NoError(t, env.journeys.Save(ctx, j))

	latest, err := env.journeys.Latest(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, journey.TaskIDs(j.Tasks), journey.TaskIDs(latest.Tasks))

	tracker := progress.NewTracker(env.kv, log)
	done, completion, err := tracker.Toggle(ctx, userID, latest.Tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Greater(t, progress.Percent(latest.Tasks, completion), 0)

	done, completion, err = tracker.Toggle(ctx, userID, latest.Tasks[0].ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, progress.Percent(latest.Tasks, completion))

	// 4. Questionnaire round trip
	repo := questionnaire.NewRepository(env.kv, log)
	q := questionnaire.Questionnaire{
		"contact": map[string]interface{}{"name": "E2E", "email": "e2e@example.com"},
		"rooms":   map[string]interface{}{"bedroom": map[string]interface{}{"bed": float64(1)}},
	}
	saved, err := repo.Save(ctx, userID, q)
	require.NoError(t, err)

	loaded, ok, err := repo.Load(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved, loaded)
}

func TestActivityRegistryCoversWorkers(t *testing.T) {
	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{
		"parse-address", "set-move-context",
		"search-providers", "filter-providers", "track-referral", "select-mover",
		"generate-journey", "toggle-task", "journey-progress",
		"save-questionnaire", "send-questionnaire-email", "share-with-movers",
	} {
		_, ok := reg.Find(taskType)
		assert.True(t, ok, taskType)
	}
}
