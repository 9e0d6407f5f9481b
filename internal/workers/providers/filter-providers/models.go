// internal/workers/providers/filter-providers/models.go
package filterproviders

import "ezrelo/internal/providers"

type Input struct {
	UserID       string `json:"userId"`
	Category     string `json:"category"`
	FromLocation string `json:"fromLocation,omitempty"`
	ToLocation   string `json:"toLocation,omitempty"`
	// Providers is filtered when present; otherwise the cached results are.
	Providers []providers.Provider `json:"providers,omitempty"`
	providers.Criteria
	Page     int `json:"page,omitempty"`
	PageSize int `json:"pageSize,omitempty"`
}

type Output struct {
	Providers  []providers.Provider `json:"filteredProviders"`
	Matched    int                  `json:"matchedCount"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"totalPages"`
	FromCache  bool                 `json:"fromCache"`
}
