package trackreferral

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/referral"
)

type recordingPoster struct {
	mu     sync.Mutex
	err    error
	block  chan struct{}
	clicks []referral.Click
}

func (p *recordingPoster) PostJSON(ctx context.Context, _ string, body interface{}, _ interface{}) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, body.(referral.Click))
	return p.err
}

func newTestHandler(t *testing.T, poster *recordingPoster) (*Handler, *referral.Tracker) {
	t.Helper()
	tracker := referral.NewTracker(poster, "", time.Second, logger.NewTestLogger(t))
	return NewHandler(&Config{Timeout: time.Second}, tracker, logger.NewTestLogger(t)), tracker
}

func TestHandler_Execute_PrefersReferralURL(t *testing.T) {
	poster := &recordingPoster{}
	h, tracker := newTestHandler(t, poster)

	out, err := h.execute(context.Background(), &Input{
		UserID:       "u1",
		ProviderName: "Atlas Van Lines",
		Category:     "moving",
		Website:      "https://atlas.example",
		ReferralURL:  "https://partners.example/atlas?ref=ezrelo",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://partners.example/atlas?ref=ezrelo", out.URL)
	assert.NotEmpty(t, out.ClickID)
	assert.Equal(t, referral.ActionClick, out.Action)

	tracker.Wait()
	require.Len(t, poster.clicks, 1)
	assert.Equal(t, out.ClickID, poster.clicks[0].ID)
	assert.Equal(t, "moving", poster.clicks[0].Category)
}

func TestHandler_Execute_TrackingFailureDoesNotBlock(t *testing.T) {
	poster := &recordingPoster{err: errors.New("502 bad gateway"), block: make(chan struct{})}
	h, tracker := newTestHandler(t, poster)

	done := make(chan *Output, 1)
	go func() {
		out, err := h.execute(context.Background(), &Input{ProviderName: "Budget Movers", Website: "https://budget.example"})
		assert.NoError(t, err)
		done <- out
	}()

	select {
	case out := <-done:
		assert.Equal(t, "https://budget.example", out.URL)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("execute waited on the tracking post")
	}

	close(poster.block)
	tracker.Wait()
}

func TestHandler_Execute_CallAction(t *testing.T) {
	h, tracker := newTestHandler(t, &recordingPoster{})
	defer tracker.Wait()

	out, err := h.execute(context.Background(), &Input{ProviderName: "City Water", Action: "CALL", Phone: "512-555-0100"})
	require.NoError(t, err)
	assert.Equal(t, referral.ActionCall, out.Action)
	assert.Equal(t, "512-555-0100", out.Phone)
	assert.Empty(t, out.URL)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h, tracker := newTestHandler(t, &recordingPoster{})
	defer tracker.Wait()

	_, err := h.execute(context.Background(), &Input{})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)

	_, err = h.execute(context.Background(), &Input{ProviderName: "X", Action: "teleport"})
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)
}
