package providers

import (
	"context"
	"errors"
	"fmt"

	"ezrelo/internal/address"
	commonhttp "ezrelo/internal/common/http"
)

var (
	ErrUnknownCategory = errors.New("UNKNOWN_CATEGORY")
	ErrStaleResponse   = errors.New("STALE_RESPONSE")
	ErrLocationMissing = errors.New("LOCATION_MISSING")
)

// Query is the parsed location pair a search runs against. Only moving
// searches use From.
type Query struct {
	From address.Address
	To   address.Address
}

// Searcher runs one provider search.
type Searcher interface {
	Search(ctx context.Context, category Category, q Query) ([]Provider, error)
}

// DefaultEndpoints are the backend paths per category.
func DefaultEndpoints() map[Category]string {
	return map[Category]string{
		CategoryMoving:    "/api/moving-companies",
		CategoryUtilities: "/api/utilities",
		CategoryHousing:   "/api/search-housing-services",
		CategoryLocal:     "/api/search-local-services",
	}
}

type searchRequest struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip,omitempty"`

	FromCity  string `json:"fromCity,omitempty"`
	FromState string `json:"fromState,omitempty"`
	FromZip   string `json:"fromZip,omitempty"`
	ToCity    string `json:"toCity,omitempty"`
	ToState   string `json:"toState,omitempty"`
	ToZip     string `json:"toZip,omitempty"`
}

func newSearchRequest(category Category, q Query) searchRequest {
	req := searchRequest{
		Street: q.To.Street,
		City:   q.To.City,
		State:  q.To.State,
		Zip:    q.To.Zip,
	}
	if category == CategoryMoving {
		req.FromCity, req.FromState, req.FromZip = q.From.City, q.From.State, q.From.Zip
		req.ToCity, req.ToState, req.ToZip = q.To.City, q.To.State, q.To.Zip
	}
	return req
}

// searchResponse covers every endpoint's envelope.
type searchResponse struct {
	Companies []Provider `json:"companies"`
	Providers []Provider `json:"providers"`
	Services  []Provider `json:"services"`
}

func (r searchResponse) forCategory(category Category) []Provider {
	var list []Provider
	switch category {
	case CategoryMoving:
		list = r.Companies
	case CategoryUtilities:
		list = r.Providers
	default:
		list = r.Services
	}
	if list == nil {
		// tolerate a backend that uses another envelope name
		for _, alt := range [][]Provider{r.Companies, r.Providers, r.Services} {
			if alt != nil {
				return alt
			}
		}
	}
	return list
}

// HTTPSearcher calls the category endpoints on the backend.
type HTTPSearcher struct {
	client    *commonhttp.Client
	endpoints map[Category]string
}

func NewHTTPSearcher(client *commonhttp.Client, endpoints map[Category]string) *HTTPSearcher {
	merged := DefaultEndpoints()
	for c, p := range endpoints {
		if p != "" {
			merged[c] = p
		}
	}
	return &HTTPSearcher{client: client, endpoints: merged}
}

func (s *HTTPSearcher) Search(ctx context.Context, category Category, q Query) ([]Provider, error) {
	path, ok := s.endpoints[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	var resp searchResponse
	if err := s.client.PostJSON(ctx, path, newSearchRequest(category, q), &resp); err != nil {
		return nil, err
	}
	return resp.forCategory(category), nil
}

// Router sends each category to its own Searcher, falling back to a default.
type Router struct {
	fallback  Searcher
	overrides map[Category]Searcher
}

func NewRouter(fallback Searcher) *Router {
	return &Router{fallback: fallback, overrides: make(map[Category]Searcher)}
}

// Route serves category from s instead of the fallback.
func (r *Router) Route(category Category, s Searcher) *Router {
	r.overrides[category] = s
	return r
}

func (r *Router) Search(ctx context.Context, category Category, q Query) ([]Provider, error) {
	if s, ok := r.overrides[category]; ok {
		return s.Search(ctx, category, q)
	}
	return r.fallback.Search(ctx, category, q)
}
