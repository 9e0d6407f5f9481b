// Package movecontext holds the (origin, destination, move date) triple
// shared by every relocation step.
package movecontext

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"ezrelo/internal/address"
	"ezrelo/internal/store"
)

// MoveContext is an immutable value. Use the With* methods to derive a
// changed copy.
type MoveContext struct {
	From     string `json:"fromLocation"`
	To       string `json:"toLocation"`
	MoveDate string `json:"moveDate"`
}

func New(from, to, moveDate string) MoveContext {
	return MoveContext{
		From:     strings.TrimSpace(from),
		To:       strings.TrimSpace(to),
		MoveDate: strings.TrimSpace(moveDate),
	}
}

// FromQuery reads the from, to and date parameters.
func FromQuery(q url.Values) MoveContext {
	return New(q.Get("from"), q.Get("to"), q.Get("date"))
}

// Query encodes the context as from, to and date parameters, omitting blanks.
func (m MoveContext) Query() url.Values {
	q := url.Values{}
	if m.From != "" {
		q.Set("from", m.From)
	}
	if m.To != "" {
		q.Set("to", m.To)
	}
	if m.MoveDate != "" {
		q.Set("date", m.MoveDate)
	}
	return q
}

// Merge returns m with every blank field filled from other.
func (m MoveContext) Merge(other MoveContext) MoveContext {
	if m.From == "" {
		m.From = other.From
	}
	if m.To == "" {
		m.To = other.To
	}
	if m.MoveDate == "" {
		m.MoveDate = other.MoveDate
	}
	return m
}

func (m MoveContext) IsZero() bool {
	return m == MoveContext{}
}

func (m MoveContext) Origin() address.Address {
	return address.Parse(m.From)
}

func (m MoveContext) Destination() address.Address {
	return address.Parse(m.To)
}

// Store is the only writer of the move-context keys.
type Store struct {
	kv store.Store
}

func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

// Save writes all three keys. Last write wins.
func (s *Store) Save(ctx context.Context, userID string, m MoveContext) error {
	writes := []struct{ key, value string }{
		{store.KeyFromLocation, m.From},
		{store.KeyToLocation, m.To},
		{store.KeyMoveDate, m.MoveDate},
	}
	for _, w := range writes {
		if err := s.kv.SetString(ctx, userID, w.key, w.value); err != nil {
			return fmt.Errorf("save move context: %w", err)
		}
	}
	return nil
}

// Load returns the stored context; missing keys come back blank.
func (s *Store) Load(ctx context.Context, userID string) (MoveContext, error) {
	var m MoveContext
	var err error
	if m.From, err = s.kv.GetString(ctx, userID, store.KeyFromLocation); err != nil {
		return MoveContext{}, fmt.Errorf("load move context: %w", err)
	}
	if m.To, err = s.kv.GetString(ctx, userID, store.KeyToLocation); err != nil {
		return MoveContext{}, fmt.Errorf("load move context: %w", err)
	}
	if m.MoveDate, err = s.kv.GetString(ctx, userID, store.KeyMoveDate); err != nil {
		return MoveContext{}, fmt.Errorf("load move context: %w", err)
	}
	return m, nil
}

// Resolve prefers explicit values in m and falls back to the stored context.
func (s *Store) Resolve(ctx context.Context, userID string, m MoveContext) (MoveContext, error) {
	if m.From != "" && m.To != "" && m.MoveDate != "" {
		return m, nil
	}
	stored, err := s.Load(ctx, userID)
	if err != nil {
		return m, err
	}
	return m.Merge(stored), nil
}
