package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/movecontext"
)

func TestMoverBackend_CreateProjectAndSelect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/api/moving-project":
			assert.Equal(t, "u1", body["userId"])
			assert.Equal(t, "Denver, CO", body["toLocation"])
			w.Write([]byte(`{"id":"proj-7"}`))
		case "/api/select-mover":
			assert.Equal(t, "proj-7", body["projectId"])
			assert.Equal(t, "m-1", body["moverId"])
			w.Write([]byte(`{"selectionId":"sel-1","status":"confirmed"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	b := NewMoverBackend(commonhttp.NewClient(server.URL, "", 0), "", "")
	ctx := context.Background()

	projectID, err := b.CreateProject(ctx, "u1", movecontext.New(route.From, "Denver, CO", route.MoveDate))
	require.NoError(t, err)
	assert.Equal(t, "proj-7", projectID)

	sel, err := b.SelectMover(ctx, "u1", projectID, Provider{ID: "m-1", Name: "Two Men"})
	require.NoError(t, err)
	assert.Equal(t, "sel-1", sel.SelectionID)
	assert.Equal(t, "proj-7", sel.ProjectID)
	assert.Equal(t, "Two Men", sel.MoverName)
}

func TestMoverBackend_ProjectWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewMoverBackend(commonhttp.NewClient(server.URL, "", 0), "", "").CreateProject(context.Background(), "u1", route)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project id")
}
