package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/openworld/internal/dependencies/random"
)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 5 * time.Second
	defaultSimRate    = 200 * time.Millisecond
)

func newSimCmd() *cobra.Command {
	var (
		roomName    string
		name        string
		kidToken    string
		parentToken string
		interval    time.Duration
		duration    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a simulated client that wanders around a room",
		Long: `Connect to a room and send a random move every interval.

The simulator reconnects with exponential backoff (500ms doubling to 5s)
whenever the connection drops. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := WebSocketURL(cfg.ServerURL, roomName, kidToken, parentToken)
			if err != nil {
				return err
			}

			if name == "" {
				name = "sim-" + random.New().String(4, "0123456789abcdef")
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if duration > 0 {
				var stop context.CancelFunc
				ctx, stop = context.WithTimeout(ctx, duration)
				defer stop()
			}

			sim := NewSimulator(wsURL, interval, random.New(), logger.With(slog.String("sim", name)))
			return sim.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&roomName, "room", "world", "Room name to join")
	cmd.Flags().StringVar(&name, "name", "", "Simulator name used in log lines")
	cmd.Flags().StringVar(&kidToken, "kid-token", "", "Kid admission token")
	cmd.Flags().StringVar(&parentToken, "parent-token", "", "Parent admission token")
	cmd.Flags().DurationVar(&interval, "interval", defaultSimRate, "Time between move messages")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 runs until interrupted)")

	return cmd
}

// Simulator is a headless client that keeps a room connection alive and sends random moves
type Simulator struct {
	url      string
	interval time.Duration
	random   random.Random
	logger   *slog.Logger
	dialer   *websocket.Dialer
}

// NewSimulator creates a simulator for the given websocket URL
func NewSimulator(wsURL string, interval time.Duration, rnd random.Random, logger *slog.Logger) *Simulator {
	if interval <= 0 {
		interval = defaultSimRate
	}
	return &Simulator{
		url:      wsURL,
		interval: interval,
		random:   rnd,
		logger:   logger,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run connects and reconnects until ctx is done
func (s *Simulator) Run(ctx context.Context) error {
	delay := minReconnectDelay
	for {
		if s.session(ctx) {
			delay = minReconnectDelay
		}
		if ctx.Err() != nil {
			return nil
		}

		s.logger.Debug("reconnect scheduled", slog.Duration("in", delay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = nextReconnectDelay(delay)
	}
}

func nextReconnectDelay(d time.Duration) time.Duration {
	return min(d*2, maxReconnectDelay)
}

type simMove struct {
	Type string  `json:"type"`
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
	Seq  int64   `json:"seq"`
}

// session runs one connection. It reports whether the dial succeeded.
func (s *Simulator) session(ctx context.Context) bool {
	s.logger.Info("connecting", slog.String("url", redactQuery(s.url)))

	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		attrs := []any{slog.String("error", err.Error())}
		if resp != nil {
			attrs = append(attrs, slog.Int("status", resp.StatusCode))
			_ = resp.Body.Close()
		}
		s.logger.Warn("connect error", attrs...)
		return false
	}
	defer conn.Close()

	closed := make(chan error, 1)
	go s.readLoop(conn, closed)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return true
		case err := <-closed:
			attrs := []any{slog.String("error", err.Error())}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				attrs = []any{slog.Int("code", ce.Code), slog.String("reason", ce.Text)}
			}
			s.logger.Info("room leave", attrs...)
			return true
		case <-ticker.C:
			seq++
			move := simMove{Type: "move", DX: s.unit(), DY: s.unit(), Seq: seq}
			if err := conn.WriteJSON(move); err != nil {
				s.logger.Debug("send failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Simulator) readLoop(conn *websocket.Conn, closed chan<- error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closed <- err
			return
		}

		var msg struct {
			Type      string `json:"type"`
			RoomID    string `json:"roomId"`
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "welcome" {
			s.logger.Info("connected", slog.String("room", msg.RoomID), slog.String("session", msg.SessionID))
		}
	}
}

// unit returns -1 or 1
func (s *Simulator) unit() float64 {
	if s.random.Intn(2) == 0 {
		return -1
	}
	return 1
}

// redactQuery drops the query string so tokens never reach the log
func redactQuery(raw string) string {
	base, _, found := strings.Cut(raw, "?")
	if !found {
		return raw
	}
	return base + "?redacted"
}
