// internal/workers/providers/select-mover/models.go
package selectmover

import "ezrelo/internal/providers"

type Input struct {
	UserID    string             `json:"userId"`
	ProjectID string             `json:"projectId,omitempty"`
	Mover     providers.Provider `json:"mover"`
}

type Output struct {
	ProjectID string              `json:"projectId"`
	Selection providers.Selection `json:"selection"`
	ClickID   string              `json:"clickId"`
	MoverURL  string              `json:"moverUrl,omitempty"`
}
