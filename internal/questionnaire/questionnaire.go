// Package questionnaire persists the moving-inventory questionnaire and
// derives quote-request payloads from it. The questionnaire is free-form JSON;
// nothing in it is required.
package questionnaire

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ezrelo/internal/common/logger"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/store"
)

// SavedAtField is stamped on every save and excluded from equality.
const SavedAtField = "savedAt"

// Questionnaire is the raw form. Known sections are "rooms"
// (room → item → quantity), "contact" and "logistics".
type Questionnaire map[string]interface{}

// Clone deep-copies q through JSON.
func (q Questionnaire) Clone() (Questionnaire, error) {
	if q == nil {
		return nil, nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	var out Questionnaire
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SavedAt returns the save stamp, or zero when absent or malformed.
func (q Questionnaire) SavedAt() time.Time {
	s, _ := q[SavedAtField].(string)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Repository reads and writes the questionnaire under ezrelo_questionnaire.
type Repository struct {
	kv     store.Store
	logger logger.Logger
	now    func() time.Time
}

func NewRepository(kv store.Store, log logger.Logger) *Repository {
	return &Repository{kv: kv, logger: log, now: time.Now}
}

// Save stamps savedAt and stores the whole questionnaire. The caller's map is
// not modified.
func (r *Repository) Save(ctx context.Context, userID string, q Questionnaire) (Questionnaire, error) {
	out, err := q.Clone()
	if err != nil {
		return nil, fmt.Errorf("copy questionnaire: %w", err)
	}
	if out == nil {
		out = Questionnaire{}
	}
	out[SavedAtField] = r.now().UTC().Format(time.RFC3339)

	if err := r.kv.SetJSON(ctx, userID, store.KeyQuestionnaire, out, 0); err != nil {
		return nil, fmt.Errorf("save questionnaire: %w", err)
	}
	return out, nil
}

// Load returns the saved questionnaire. ok is false when nothing usable is
// stored.
func (r *Repository) Load(ctx context.Context, userID string) (Questionnaire, bool, error) {
	var q Questionnaire
	ok, err := r.kv.GetJSON(ctx, userID, store.KeyQuestionnaire, &q)
	if err != nil {
		return nil, false, err
	}
	if !ok || q == nil {
		return nil, false, nil
	}
	return q, true, nil
}

// QuotesRequested lists the mover ids quotes were requested from.
func (r *Repository) QuotesRequested(ctx context.Context, userID string) ([]string, error) {
	return store.GetStringSlice(ctx, r.kv, userID, store.KeyQuotesRequested)
}

// MarkQuoteRequested appends mover ids to quotesRequested, skipping ones
// already present, and returns the full list.
func (r *Repository) MarkQuoteRequested(ctx context.Context, userID string, moverIDs ...string) ([]string, error) {
	var result []string
	err := r.kv.Update(ctx, userID, store.KeyQuotesRequested, func(current string) (string, error) {
		var ids []string
		if current != "" {
			if err := json.Unmarshal([]byte(current), &ids); err != nil {
				r.logger.Debug("ignoring corrupt quotesRequested", map[string]interface{}{"userId": userID})
				ids = nil
			}
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			seen[id] = true
		}
		for _, id := range moverIDs {
			if id != "" && !seen[id] {
				ids = append(ids, id)
				seen[id] = true
			}
		}
		if ids == nil {
			ids = []string{}
		}
		data, err := json.Marshal(ids)
		if err != nil {
			return "", err
		}
		result = ids
		return string(data), nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark quote requested: %w", err)
	}
	return result, nil
}

// RoomSummary totals one room of the inventory.
type RoomSummary struct {
	Room     string         `json:"room"`
	Items    map[string]int `json:"items"`
	Quantity int            `json:"quantity"`
}

// Inventory is the per-room breakdown of the questionnaire.
type Inventory struct {
	Rooms      []RoomSummary `json:"rooms"`
	TotalItems int           `json:"totalItems"`
}

// InventorySummary totals item quantities per room. Items with a zero or
// unreadable quantity are left out.
func InventorySummary(q Questionnaire) Inventory {
	rooms, _ := q["rooms"].(map[string]interface{})
	inv := Inventory{Rooms: []RoomSummary{}}

	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		items, _ := rooms[name].(map[string]interface{})
		rs := RoomSummary{Room: name, Items: map[string]int{}}
		for item, raw := range items {
			n := quantity(raw)
			if n <= 0 {
				continue
			}
			rs.Items[item] = n
			rs.Quantity += n
		}
		if rs.Quantity == 0 {
			continue
		}
		inv.Rooms = append(inv.Rooms, rs)
		inv.TotalItems += rs.Quantity
	}
	return inv
}

func quantity(v interface{}) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case bool:
		if x {
			return 1
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	case map[string]interface{}:
		return quantity(x["quantity"])
	}
	return 0
}

// Contact is read from the "contact" section, or from top-level fields.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func ContactOf(q Questionnaire) Contact {
	section, _ := q["contact"].(map[string]interface{})
	pick := func(key string) string {
		if s, ok := section[key].(string); ok && s != "" {
			return strings.TrimSpace(s)
		}
		s, _ := q[key].(string)
		return strings.TrimSpace(s)
	}
	return Contact{Name: pick("name"), Email: pick("email"), Phone: pick("phone")}
}

// QuoteRequest is the payload sent to movers or the AI quote endpoint.
type QuoteRequest struct {
	UserID        string                 `json:"userId"`
	FromLocation  string                 `json:"fromLocation"`
	ToLocation    string                 `json:"toLocation"`
	MoveDate      string                 `json:"moveDate,omitempty"`
	MoverIDs      []string               `json:"moverIds,omitempty"`
	Contact       Contact                `json:"contact"`
	Inventory     Inventory              `json:"inventory"`
	Logistics     map[string]interface{} `json:"logistics,omitempty"`
	Questionnaire Questionnaire          `json:"questionnaire"`
}

// BuildQuoteRequest assembles the quote payload from the questionnaire and
// the move context.
func BuildQuoteRequest(userID string, q Questionnaire, mc movecontext.MoveContext, moverIDs []string) QuoteRequest {
	logistics, _ := q["logistics"].(map[string]interface{})
	return QuoteRequest{
		UserID:        userID,
		FromLocation:  mc.From,
		ToLocation:    mc.To,
		MoveDate:      mc.MoveDate,
		MoverIDs:      moverIDs,
		Contact:       ContactOf(q),
		Inventory:     InventorySummary(q),
		Logistics:     logistics,
		Questionnaire: q,
	}
}
