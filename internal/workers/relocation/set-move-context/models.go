// internal/workers/relocation/set-move-context/models.go
package setmovecontext

import (
	"ezrelo/internal/address"
	"ezrelo/internal/movecontext"
)

type Input struct {
	UserID       string `json:"userId"`
	FromLocation string `json:"fromLocation,omitempty"`
	ToLocation   string `json:"toLocation,omitempty"`
	MoveDate     string `json:"moveDate,omitempty"`
	// Query carries from/to/date URL parameters, e.g. "from=Austin%2C+TX&date=2026-07-01".
	Query string `json:"query,omitempty"`
}

type Output struct {
	MoveContext  movecontext.MoveContext `json:"moveContext"`
	FromLocation string                  `json:"fromLocation"`
	ToLocation   string                  `json:"toLocation"`
	MoveDate     string                  `json:"moveDate"`
	MoveQuery    string                  `json:"moveQuery"`
	Origin       address.Address         `json:"origin"`
	Destination  address.Address         `json:"destination"`
	Searchable   bool                    `json:"destinationSearchable"`
}
