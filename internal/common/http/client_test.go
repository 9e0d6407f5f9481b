package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/utilities", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Austin", body["city"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"providers":[{"provider":"Austin Energy"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", 0)
	var out struct {
		Providers []struct {
			Provider string `json:"provider"`
		} `json:"providers"`
	}

	err := client.PostJSON(context.Background(), "/api/utilities", map[string]string{"city": "Austin"}, &out)
	require.NoError(t, err)
	require.Len(t, out.Providers, 1)
	assert.Equal(t, "Austin Energy", out.Providers[0].Provider)
}

func TestClient_PostJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	err := NewClient(server.URL, "", 0).PostJSON(context.Background(), "/api/moving-companies", nil, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestClient_PostJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewClient(server.URL, "", 0).PostJSON(ctx, "/api/ai-recommendations", map[string]string{}, nil)
	assert.True(t, errors.Is(err, ErrTimeout), "expected timeout, got %v", err)
}

func TestClient_PostJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := NewClient(server.URL, "", 0).PostJSON(context.Background(), "/api/verify-address", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /api/verify-address response")
}
