package sharewithmovers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	commonerrors "ezrelo/internal/common/errors"
	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/providers"
	"ezrelo/internal/questionnaire"
	"ezrelo/internal/referral"
	"ezrelo/internal/store"
)

type MockTexter struct {
	mock.Mock
}

func (m *MockTexter) SendSMS(ctx context.Context, phone, message string) (string, error) {
	args := m.Called(ctx, phone, message)
	return args.String(0), args.Error(1)
}

type backend struct {
	mu       sync.Mutex
	shared   []questionnaire.QuoteRequest
	referral []referral.Click
	fail     bool
}

func (b *backend) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.URL.Path {
		case "/api/share-with-movers":
			if b.fail {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			var req questionnaire.QuoteRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			b.shared = append(b.shared, req)
			w.Write([]byte(`{"shareId":"share-1","accepted":2}`))
		case "/api/track-referral":
			var c referral.Click
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&c))
			b.referral = append(b.referral, c)
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	handler  *Handler
	repo     *questionnaire.Repository
	contexts *movecontext.Store
	tracker  *referral.Tracker
}

func setup(t *testing.T, b *backend, texter Texter) fixture {
	t.Helper()
	log := logger.NewTestLogger(t)
	client := commonhttp.NewClient(b.server(t).URL, "", time.Second)
	kv := store.NewMemoryStore(log)
	repo := questionnaire.NewRepository(kv, log)
	contexts := movecontext.NewStore(kv)
	tracker := referral.NewTracker(client, "", time.Second, log)
	cfg := &Config{Endpoint: "/api/share-with-movers", SMSEnabled: true, Timeout: time.Second}
	return fixture{
		handler:  NewHandler(cfg, client, repo, contexts, tracker, texter, log),
		repo:     repo,
		contexts: contexts,
		tracker:  tracker,
	}
}

func (f fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.repo.Save(ctx, "u1", questionnaire.Questionnaire{
		"contact": map[string]interface{}{"name": "Jo", "phone": "+15125550100"},
		"rooms":   map[string]interface{}{"kitchen": map[string]interface{}{"table": float64(1)}},
	})
	require.NoError(t, err)
	require.NoError(t, f.contexts.Save(ctx, "u1", movecontext.New("Austin, TX", "Denver, CO", "2026-08-01")))
}

var movers = []providers.Provider{
	{ID: "m1", Name: "Two Movers", Website: "https://two.example.com"},
	{Name: "Box Co"},
	{ID: "m1", Name: "Two Movers duplicate"},
}

func TestHandler_Execute_SharesAndMarksQuotes(t *testing.T) {
	b := &backend{}
	f := setup(t, b, nil)
	f.seed(t)

	out, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers})
	require.NoError(t, err)
	f.tracker.Wait()

	assert.Equal(t, "share-1", out.ShareID)
	assert.Equal(t, []string{"m1", "Box Co"}, out.SharedWith)
	assert.Equal(t, 2, out.Accepted)
	assert.Equal(t, []string{"m1", "Box Co"}, out.QuotesRequested)
	assert.Len(t, out.ClickIDs, 3)
	assert.Equal(t, SMSStatusSkipped, out.SMSStatus)

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.shared, 1)
	assert.Equal(t, "Denver, CO", b.shared[0].ToLocation)
	assert.Equal(t, []string{"m1", "Box Co"}, b.shared[0].MoverIDs)
	assert.Equal(t, 1, b.shared[0].Inventory.TotalItems)
	require.Len(t, b.referral, 3)
	for _, c := range b.referral {
		assert.Equal(t, referral.ActionQuote, c.Action)
	}
}

func TestHandler_Execute_RepeatShareKeepsQuotesUnique(t *testing.T) {
	f := setup(t, &backend{}, nil)
	f.seed(t)

	_, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers[:1]})
	require.NoError(t, err)
	out, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers})
	require.NoError(t, err)
	f.tracker.Wait()

	assert.Equal(t, []string{"m1", "Box Co"}, out.QuotesRequested)
}

func TestHandler_Execute_SMS(t *testing.T) {
	texter := new(MockTexter)
	texter.On("SendSMS", mock.Anything, "+15125550100", mock.Anything).Return("sms-1", nil)
	f := setup(t, &backend{}, texter)
	f.seed(t)

	out, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers, NotifySMS: true})
	require.NoError(t, err)
	f.tracker.Wait()
	assert.Equal(t, SMSStatusSent, out.SMSStatus)
	assert.Equal(t, "sms-1", out.SMSMessageID)
	texter.AssertExpectations(t)
}

func TestHandler_Execute_SMSFailureIsNotFatal(t *testing.T) {
	texter := new(MockTexter)
	texter.On("SendSMS", mock.Anything, "+15550001111", mock.Anything).Return("", errors.New("opted out"))
	f := setup(t, &backend{}, texter)
	f.seed(t)

	out, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers, NotifySMS: true, Phone: "+15550001111"})
	require.NoError(t, err)
	f.tracker.Wait()
	assert.Equal(t, SMSStatusFailed, out.SMSStatus)
}

func TestHandler_Execute_BackendFailureLeavesQuotesUntouched(t *testing.T) {
	f := setup(t, &backend{fail: true}, nil)
	f.seed(t)

	_, err := f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers})
	assert.Equal(t, commonerrors.ErrCodeBackendUnavailable, commonerrors.AsStandard(err).Code)

	requested, err := f.repo.QuotesRequested(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, requested)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	f := setup(t, &backend{}, nil)

	_, err := f.handler.execute(context.Background(), &Input{UserID: "u1"})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)

	_, err = f.handler.execute(context.Background(), &Input{UserID: "u1", Movers: movers})
	assert.Equal(t, commonerrors.ErrCodeQuestionnaireMissing, commonerrors.AsStandard(err).Code)
}
