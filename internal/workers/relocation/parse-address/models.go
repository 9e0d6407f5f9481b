// internal/workers/relocation/parse-address/models.go
package parseaddress

import "ezrelo/internal/address"

type Input struct {
	UserID  string `json:"userId,omitempty"`
	Address string `json:"address"`
	Role    string `json:"role,omitempty"` // "from" or "to"
	Verify  bool   `json:"verify,omitempty"`
}

type Output struct {
	ParsedAddress address.Address `json:"parsedAddress"`
	Role          string          `json:"role,omitempty"`
	Searchable    bool            `json:"addressSearchable"`
	UsedFallback  bool            `json:"usedFallback"`
	Verified      bool            `json:"addressVerified"`
}

const (
	RoleFrom = "from"
	RoleTo   = "to"
)
