package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_DoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	resp, err := client.DoJSON(context.Background(), http.MethodPost, srv.URL,
		map[string]string{"Authorization": "Bearer tok"}, map[string]string{"name": "acme"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]string
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "acme", out["echo"])
}

func TestClient_DoJSON_NonSuccessIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad"}`))
	}))
	defer srv.Close()

	resp, err := NewClientWith(srv.Client()).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"message":"bad"}`, string(resp.Body))
}

func TestClient_DoJSON_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(time.Second).DoJSON(context.Background(), http.MethodGet, url, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}
