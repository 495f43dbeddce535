package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DulakshanaMalith/Photography-Learning/internal/ws"
)

type stubValidator struct {
	userID string
	err    error
}

func (v *stubValidator) Validate(_ context.Context, token string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	return v.userID, nil
}

func newGateway(t *testing.T, validator *stubValidator, allowedOrigins string) *httptest.Server {
	t.Helper()
	hub := ws.NewHub(nil, nil, nil, nil, nil, 10)
	h := NewWSHandler(hub, validator, allowedOrigins)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func TestServeWSRefusesMissingToken(t *testing.T) {
	srv := newGateway(t, &stubValidator{userID: "u1"}, "*")

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWSRefusesMalformedHeader(t *testing.T) {
	srv := newGateway(t, &stubValidator{userID: "u1"}, "*")

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWSRefusesRejectedToken(t *testing.T) {
	srv := newGateway(t, &stubValidator{err: errors.New("expired")}, "*")

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer bad-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWSRefusesForeignOrigin(t *testing.T) {
	srv := newGateway(t, &stubValidator{userID: "u1"}, "https://app.example.com")

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeWSUpgradesWithValidToken(t *testing.T) {
	srv := newGateway(t, &stubValidator{userID: "u1"}, "*")

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Authorization": []string{"Bearer good-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}
