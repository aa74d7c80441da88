package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/openworld/internal/dependencies/mocks"
	"github.com/mcoot/openworld/internal/factory"
	"github.com/mcoot/openworld/internal/services/auth"
	"github.com/mcoot/openworld/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.app = factory.NewTestApp(factory.Config{})
	s.server = httptest.NewServer(s.app.Router())
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.NoError(s.app.Shutdown(ctx))
}

func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", s.server.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) TestHealthJSON() {
	out, err := s.run("health", "-o", "json")
	s.Require().NoError(err)

	var result HealthResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.True(result.OK)
	s.Len(result.SecretFP, 8)
	s.True(result.LastAuth.OK)
}

func (s *CLISuite) TestHealthText() {
	out, err := s.run("health")
	s.Require().NoError(err)
	s.Contains(out, "Status: ok")
	s.Contains(out, "Rooms: 0")
}

func (s *CLISuite) TestRoomsListEmpty() {
	out, err := s.run("rooms", "list")
	s.Require().NoError(err)
	s.Contains(out, "No rooms")
}

func (s *CLISuite) TestRoomsGetUnknown() {
	_, err := s.run("rooms", "get", "nope")
	s.Require().Error(err)
	s.Contains(err.Error(), "ROOM_NOT_FOUND")
}

func (s *CLISuite) TestSimJoinsAndLeaves() {
	s.app.MockRandom.QueueString("SIMROOM01")
	kidToken, err := s.app.SeedKid(context.Background(), "fam-sim", "kid-sim", 900)
	s.Require().NoError(err)

	wsURL, err := WebSocketURL(s.server.URL, "world", kidToken, "")
	s.Require().NoError(err)

	logger, logs := testutil.BufferLogger()
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(0, 1, 1, 0)
	sim := NewSimulator(wsURL, 20*time.Millisecond, rnd, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	s.Eventually(func() bool {
		info, err := s.app.Rooms.Info("SIMROOM01")
		return err == nil && info.Clients == 1
	}, 5*time.Second, 20*time.Millisecond)

	s.Eventually(func() bool {
		return strings.Contains(logs.String(), `"msg":"connected"`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	s.Require().NoError(<-done)

	s.Eventually(func() bool {
		return len(s.app.Rooms.List()) == 0
	}, 5*time.Second, 20*time.Millisecond)
	s.NotContains(logs.String(), kidToken)
}

func TestSimulatorRetriesWithBackoff(t *testing.T) {
	// a server that always rejects the upgrade
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusUnauthorized)
	}))
	defer srv.Close()

	wsURL, err := WebSocketURL(srv.URL, "world", "", "")
	require.NoError(t, err)

	logger, logs := testutil.BufferLogger()
	sim := NewSimulator(wsURL, 0, mocks.NewMockRandom(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()
	require.NoError(t, sim.Run(ctx))

	// attempts at 0ms, 500ms and 1500ms; only the first two fit
	attempts := strings.Count(logs.String(), `"msg":"connect error"`)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, logs.String(), `"status":401`)
}

func TestNextReconnectDelay(t *testing.T) {
	delays := []time.Duration{minReconnectDelay}
	for range 5 {
		delays = append(delays, nextReconnectDelay(delays[len(delays)-1]))
	}
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}, delays)
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		server, room, kid, parent string
		want                      string
		wantErr                   bool
	}{
		{server: "http://localhost:2567", room: "world", want: "ws://localhost:2567/ws/world"},
		{server: "https://example.com/", room: "", kid: "abc", want: "wss://example.com/ws?kidToken=abc"},
		{server: "ws://h:1", room: "r", kid: "k", parent: "p", want: "ws://h:1/ws/r?kidToken=k&parentToken=p"},
		{server: "ftp://h", room: "r", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := WebSocketURL(tt.server, tt.room, tt.kid, tt.parent)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenKidVerifiesWithSameSecret(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "kid", "child-7", "--secret", "shh", "-o", "json"})
	require.NoError(t, cmd.Execute())

	var result TokenResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.WithinDuration(t, time.Now().Add(defaultKidTTL), result.ExpiresAt, 5*time.Second)

	parts := strings.Split(result.Token, ".")
	require.Len(t, parts, 2)

	want, err := auth.SignToken("shh", auth.Claims{Kid: "child-7", Exp: result.ExpiresAt.Unix()})
	require.NoError(t, err)
	assert.Equal(t, want, result.Token)
}

func TestTokenParentIncludesFamily(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "parent", "user_1", "--family", "fam-1", "--secret", "shh", "--ttl", "1m"})
	require.NoError(t, cmd.Execute())

	data, _, ok := strings.Cut(strings.TrimSpace(out.String()), ".")
	require.True(t, ok)
	raw, err := base64.RawURLEncoding.DecodeString(data)
	require.NoError(t, err)

	var claims auth.Claims
	require.NoError(t, json.Unmarshal(raw, &claims))
	assert.Equal(t, "user_1", claims.Parent)
	assert.Equal(t, "fam-1", claims.Family)
	assert.Empty(t, claims.Kid)
	assert.InDelta(t, time.Now().Add(time.Minute).Unix(), claims.Exp, 5)
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "kid", "child-7"})
	err := cmd.Execute()
	require.ErrorIs(t, err, errNoSecret)
}
