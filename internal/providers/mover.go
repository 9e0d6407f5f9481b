package providers

import (
	"context"
	"fmt"

	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/movecontext"
)

// MoverBackend records moving projects and the mover a user picks.
type MoverBackend struct {
	client          *commonhttp.Client
	projectEndpoint string
	selectEndpoint  string
}

func NewMoverBackend(client *commonhttp.Client, projectEndpoint, selectEndpoint string) *MoverBackend {
	if projectEndpoint == "" {
		projectEndpoint = "/api/moving-project"
	}
	if selectEndpoint == "" {
		selectEndpoint = "/api/select-mover"
	}
	return &MoverBackend{client: client, projectEndpoint: projectEndpoint, selectEndpoint: selectEndpoint}
}

type projectRequest struct {
	UserID       string `json:"userId"`
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	MoveDate     string `json:"moveDate,omitempty"`
}

type projectResponse struct {
	ProjectID string `json:"projectId"`
	ID        string `json:"id"`
}

// CreateProject opens a moving project for the route in mc.
func (b *MoverBackend) CreateProject(ctx context.Context, userID string, mc movecontext.MoveContext) (string, error) {
	var resp projectResponse
	err := b.client.PostJSON(ctx, b.projectEndpoint, projectRequest{
		UserID:       userID,
		FromLocation: mc.From,
		ToLocation:   mc.To,
		MoveDate:     mc.MoveDate,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ProjectID == "" {
		resp.ProjectID = resp.ID
	}
	if resp.ProjectID == "" {
		return "", fmt.Errorf("%s returned no project id", b.projectEndpoint)
	}
	return resp.ProjectID, nil
}

// Selection is the backend's acknowledgement of a chosen mover.
type Selection struct {
	ProjectID   string `json:"projectId"`
	MoverID     string `json:"moverId"`
	MoverName   string `json:"moverName"`
	SelectionID string `json:"selectionId,omitempty"`
	Status      string `json:"status,omitempty"`
}

type selectRequest struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
	MoverID   string `json:"moverId"`
	MoverName string `json:"moverName"`
	Phone     string `json:"phone,omitempty"`
}

// SelectMover records mover as the choice for projectID.
func (b *MoverBackend) SelectMover(ctx context.Context, userID, projectID string, mover Provider) (*Selection, error) {
	var resp Selection
	err := b.client.PostJSON(ctx, b.selectEndpoint, selectRequest{
		UserID:    userID,
		ProjectID: projectID,
		MoverID:   mover.ID,
		MoverName: mover.Name,
		Phone:     mover.Phone,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ProjectID == "" {
		resp.ProjectID = projectID
	}
	if resp.MoverID == "" {
		resp.MoverID = mover.ID
	}
	if resp.MoverName == "" {
		resp.MoverName = mover.Name
	}
	return &resp, nil
}
