// Package referral records click-throughs to providers for attribution.
// Tracking is fire-and-forget: it never delays or fails the navigation it
// describes.
package referral

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/common/metrics"
)

const (
	ActionClick  = "click"
	ActionCall   = "call"
	ActionSelect = "select"
	ActionQuote  = "quote"

	defaultTrackTimeout = 5 * time.Second
)

// Click describes one user action aimed at a provider.
type Click struct {
	ID           string            `json:"clickId"`
	UserID       string            `json:"userId"`
	ProviderName string            `json:"provider"`
	ProviderID   string            `json:"providerId,omitempty"`
	Category     string            `json:"category"`
	Action       string            `json:"action"`
	Website      string            `json:"-"`
	ReferralURL  string            `json:"referralUrl,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
	OccurredAt   time.Time         `json:"timestamp"`
}

// URL prefers the referral link over the plain website.
func (c Click) URL() string {
	if c.ReferralURL != "" {
		return c.ReferralURL
	}
	return c.Website
}

// Poster is the one backend call the tracker makes.
type Poster interface {
	PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error
}

var _ Poster = (*commonhttp.Client)(nil)

// Tracker posts clicks in the background.
type Tracker struct {
	poster   Poster
	endpoint string
	timeout  time.Duration
	logger   logger.Logger

	// wg lets tests wait for in-flight posts; production code never waits.
	wg sync.WaitGroup
}

func NewTracker(poster Poster, endpoint string, timeout time.Duration, log logger.Logger) *Tracker {
	if endpoint == "" {
		endpoint = "/api/track-referral"
	}
	if timeout <= 0 {
		timeout = defaultTrackTimeout
	}
	return &Tracker{poster: poster, endpoint: endpoint, timeout: timeout, logger: log}
}

// Track fires the click at the backend and returns immediately with the
// click id. The post outlives ctx cancellation but not the tracker timeout.
func (t *Tracker) Track(ctx context.Context, click Click) string {
	if click.ID == "" {
		click.ID = uuid.New().String()
	}
	if click.Action == "" {
		click.Action = ActionClick
	}
	if click.OccurredAt.IsZero() {
		click.OccurredAt = time.Now().UTC()
	}

	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("referral tracking panicked", map[string]interface{}{"panic": r})
			}
		}()

		if err := t.poster.PostJSON(postCtx, t.endpoint, click, nil); err != nil {
			metrics.ReferralClicks.WithLabelValues("failed").Inc()
			t.logger.Warn("referral tracking failed", map[string]interface{}{
				"clickId":  click.ID,
				"provider": click.ProviderName,
				"error":    err,
			})
			return
		}
		metrics.ReferralClicks.WithLabelValues("tracked").Inc()
	}()
	return click.ID
}

// Open returns the URL to navigate to and fires tracking without waiting.
func (t *Tracker) Open(ctx context.Context, click Click) (url string, clickID string) {
	return click.URL(), t.Track(ctx, click)
}

// Wait blocks until every in-flight post has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
