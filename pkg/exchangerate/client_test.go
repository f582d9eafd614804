package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LatestUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/latest/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","date":"2024-05-01","rates":{"USD":1,"EUR":0.93,"SGD":1.35}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v4/", time.Second)
	rates, err := c.LatestUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.93, rates["EUR"])
	assert.Equal(t, 1.35, rates["SGD"])
}

func TestClient_LatestUSDErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusBadGateway, body: `{}`, wantErr: "unexpected status 502"},
		{name: "bad json", status: http.StatusOK, body: `{"rates":`, wantErr: "failed to decode"},
		{name: "empty rates", status: http.StatusOK, body: `{"rates":{}}`, wantErr: "no rates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).LatestUSD(context.Background())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"rates":{"EUR":1}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 20*time.Millisecond).LatestUSD(context.Background())
	assert.Error(t, err)
}
