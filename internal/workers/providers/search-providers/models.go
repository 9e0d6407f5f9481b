// internal/workers/providers/search-providers/models.go
package searchproviders

import "ezrelo/internal/providers"

type Input struct {
	UserID       string `json:"userId"`
	Category     string `json:"category"`
	FromLocation string `json:"fromLocation,omitempty"`
	ToLocation   string `json:"toLocation,omitempty"`
	MoveDate     string `json:"moveDate,omitempty"`
	UseCache     *bool  `json:"useCache,omitempty"`
}

type Output struct {
	Category        string               `json:"category"`
	Providers       []providers.Provider `json:"providers"`
	ProviderCount   int                  `json:"providerCount"`
	CacheKey        string               `json:"cacheKey"`
	Sequence        int64                `json:"searchSequence,omitempty"`
	FromCache       bool                 `json:"fromCache"`
	LogosRegistered int                  `json:"logosRegistered"`
}
