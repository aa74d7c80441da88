package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/openworld/internal/api/response"
	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/factory"
	"github.com/mcoot/openworld/internal/model"
)

// testServer wraps a router built from a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, cfg factory.Config) *testServer {
	t.Helper()

	app := factory.NewTestApp(cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, app.Shutdown(ctx))
	})

	return &testServer{
		handler: app.Router(),
		app:     app,
	}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, factory.Config{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		rr := ts.request(http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		health := decode[response.Health](t, rr)
		assert.True(t, health.OK)
		assert.Equal(t, diagnostics.Fingerprint(factory.TestSecret), health.SecretFP)
		assert.False(t, health.RequireKidAuth)
		assert.True(t, health.LastAuth.OK)
		assert.Positive(t, health.PID)
		assert.Equal(t, 0, health.Rooms)
	}
}

func TestHealthReportsLastRejection(t *testing.T) {
	ts := newTestServer(t, factory.Config{})

	rr := ts.request(http.MethodGet, "/ws/world?kidToken=abc.def")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	body := decode[errorBody](t, rr)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Equal(t, "bad_signature", body.Error.Message)

	health := decode[response.Health](t, ts.request(http.MethodGet, "/health"))
	assert.False(t, health.LastAuth.OK)
	assert.Equal(t, "bad_signature", health.LastAuth.Reason)
	assert.True(t, ts.app.MockClock.Now().Equal(health.LastAuth.Time))
}

func TestWebsocketRouteRejectsBeforeUpgrade(t *testing.T) {
	ts := newTestServer(t, factory.Config{})

	// a guest request without upgrade headers is admitted but the upgrade itself fails
	rr := ts.request(http.MethodGet, "/ws")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// the seat taken for the failed upgrade is released again
	assert.Empty(t, ts.app.Rooms.List())
}

func TestRoomRoutes(t *testing.T) {
	ts := newTestServer(t, factory.Config{})

	rr := ts.request(http.MethodGet, "/api/v1/rooms")
	assert.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.RoomList](t, rr)
	assert.NotNil(t, list.Rooms)
	assert.Empty(t, list.Rooms)

	ts.app.MockRandom.QueueString("ROOM12345")
	r, err := ts.app.Rooms.Reserve("world")
	require.NoError(t, err)
	defer ts.app.Rooms.Release(r)

	list = decode[response.RoomList](t, ts.request(http.MethodGet, "/api/v1/rooms"))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, response.Room{RoomID: "ROOM12345", Name: "world", Clients: 1, MaxClients: 100}, list.Rooms[0])

	rr = ts.request(http.MethodGet, "/api/v1/rooms/ROOM12345")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "world", decode[response.Room](t, rr).Name)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", decode[errorBody](t, rr).Error.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, factory.Config{})

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/rooms"},
		{http.MethodPost, "/api/v1/rooms/abc"},
		{http.MethodDelete, "/api/v1/rooms/abc"},
		{http.MethodPut, "/api/v1/health"},
		{http.MethodPost, "/health"},
		{http.MethodPost, "/ws/world"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := ts.request(tt.method, tt.path)
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			assert.Equal(t, "METHOD_NOT_ALLOWED", decode[errorBody](t, rr).Error.Code)
		})
	}

	// the matching GET routes still resolve
	assert.Equal(t, http.StatusOK, ts.request(http.MethodGet, "/api/v1/rooms").Code)
	assert.Equal(t, http.StatusNotFound, ts.request(http.MethodGet, "/api/v1/rooms/abc").Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, factory.Config{})

	rr := ts.request(http.MethodGet, "/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoomErrorsMapToStatus(t *testing.T) {
	ts := newTestServer(t, factory.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ts.app.Rooms.Shutdown(ctx))

	_, err := ts.app.Rooms.Reserve("world")
	require.ErrorIs(t, err, model.ErrRoomClosed)

	// the websocket route reports the closed manager as 503
	rr := ts.request(http.MethodGet, "/ws/world")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "ROOM_CLOSED", decode[errorBody](t, rr).Error.Code)
}
