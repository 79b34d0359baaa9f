package application

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		LogLevel:   "debug",
		HTTPPort:   freePort(t),
		SocketPort: freePort(t),
		Game: config.Game{
			DefaultBoardSize: 15,
			MaxBoardSize:     30,
		},
		Redis: config.Redis{
			SnapshotTTL: time.Hour,
		},
	}
}

func TestRunApp(t *testing.T) {
	// Given: a config mirroring snapshots into redis
	server := miniredis.RunT(t)
	conf := newTestConfig(t)
	conf.Redis.Enabled = true
	conf.Redis.Host = server.Host()
	conf.Redis.Port = server.Port()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- RunApp(ctx, logger, conf)
	}()

	// When: the servers come up
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + conf.HTTPPort + "/ping")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:"+conf.SocketPort+"/ws", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"action":  "game:new",
		"payload": map[string]any{"size": 9, "is_public": true},
	}))

	// Then: the created game is mirrored into redis
	var msg struct {
		Action  string `json:"action"`
		Payload struct {
			Game struct {
				ID string `json:"id"`
			} `json:"game"`
		} `json:"payload"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "game:created", msg.Action)

	stored, err := server.Get(repository.GameKey(msg.Payload.Game.ID))
	require.NoError(t, err)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &snapshot))
	assert.EqualValues(t, 9, snapshot["size"])

	// and canceling the context shuts everything down
	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not shut down")
	}
}

func TestRunApp_RealRedis(t *testing.T) {
	// Given: an application mirroring into a redis container
	ctx, st := suite.New(t)
	conf := newTestConfig(t)
	conf.Redis = st.RedisConfig(time.Minute)

	appCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- RunApp(appCtx, st.Logger, conf)
	}()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		dialed, resp, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:"+conf.SocketPort+"/ws", nil)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		conn = dialed

		return true
	}, 5*time.Second, 50*time.Millisecond)
	defer conn.Close()

	// When: a game is created over websocket
	require.NoError(t, conn.WriteJSON(map[string]any{
		"action":  "game:new",
		"payload": map[string]any{"size": 11},
	}))

	var msg struct {
		Payload struct {
			Game struct {
				ID string `json:"id"`
			} `json:"game"`
		} `json:"payload"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	// Then: the REST API serves it back from the same process
	resp, err := http.Get("http://127.0.0.1:" + conf.HTTPPort + "/api/games/" + msg.Payload.Game.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// and the snapshot with its version sits in redis
	assert.ElementsMatch(t,
		[]string{repository.GameKey(msg.Payload.Game.ID), repository.VersionKey(msg.Payload.Game.ID)},
		st.Keys(ctx, repository.GameKey("*")),
	)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not shut down")
	}
}

func TestRunApp_RedisUnavailable(t *testing.T) {
	server := miniredis.RunT(t)
	conf := newTestConfig(t)
	conf.Redis.Enabled = true
	conf.Redis.Host = server.Host()
	conf.Redis.Port = server.Port()
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := RunApp(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), conf)

	require.ErrorContains(t, err, "could not connect to redis storage")
}
