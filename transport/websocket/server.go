package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type uGame interface {
	CreateGame(ctx context.Context, size int, isPublic bool) (entity.GameSnapshot, error)
	GetGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	PublicGames(ctx context.Context) []usecase.PublicGame

	JoinGame(ctx context.Context, gameID, connectionRef, name string) (*usecase.SeatResult, error)
	LeaveGame(ctx context.Context, gameID, connectionRef string) (*usecase.SeatResult, error)
	LeaveAll(ctx context.Context, connectionRef string) []*usecase.SeatResult
	SetReady(ctx context.Context, gameID, connectionRef string, ready bool) (*usecase.ReadyResult, error)

	StartGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	MakeMove(ctx context.Context, gameID, connectionRef string, row, col int) (*usecase.MoveResult, error)
}

type handlerFunc func(ctx context.Context, client *Client, msg *Message) error

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	hub      *Hub
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, uGame uGame, cors config.CORS) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		hub:    NewHub(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cors.IsAllowed(origin)
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionLobbyJoin] = server.handleLobbyJoin
	server.handlers[actionGameList] = server.handleGameList
	server.handlers[actionGameGet] = server.handleGameGet
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionPlayerReady] = server.handlePlayerReady
	server.handlers[actionGameLeave] = server.handleGameLeave
	server.handlers[actionGameStart] = server.handleGameStart
	server.handlers[actionGameTurn] = server.handleGameTurn

	return server
}

func (that *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", that.serveWS).Methods(http.MethodGet)

	return router
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
			return
		}

		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked connections are not closed by Shutdown
	that.hub.closeAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn)
	that.hub.register(client)

	log.Info("WebSocket connection established", "clientID", client.id)

	go client.writePump()

	ctx := req.Context()
	err = client.readPump(func(data []byte) {
		that.dispatch(ctx, client, data)
	})

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Warn("connection closed unexpectedly", "clientID", client.id, "error", err)
	}

	that.disconnect(context.WithoutCancel(ctx), client)
}

func (that *Server) dispatch(ctx context.Context, client *Client, data []byte) {
	log := that.logger.With("method", "dispatch", "clientID", client.id)

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		that.sendError(client, "", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	handler, ok := that.handlers[msg.Action]
	if !ok {
		that.sendError(client, msg.Action, fmt.Errorf("%w: %q", errUnknownAction, msg.Action))
		return
	}

	if err := handler(ctx, client, &msg); err != nil {
		log.Debug("action failed", "action", msg.Action, "error", err)
		that.sendError(client, msg.Action, err)
	}
}

// disconnect unseats the client everywhere and tells the remaining players.
func (that *Server) disconnect(ctx context.Context, client *Client) {
	log := that.logger.With("method", "disconnect", "clientID", client.id)

	that.hub.unregister(client)

	for _, result := range that.uGame.LeaveAll(ctx, client.id) {
		that.broadcast(result.Game.ID, actionPlayerLeft, playerPayload{
			GameID: result.Game.ID,
			Player: result.Player,
			Game:   result.Game,
		})
	}

	log.Info("player disconnected")
}

func (that *Server) send(client *Client, action string, payload any) {
	data, err := encode(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "action", action, "error", err)
		return
	}

	if !that.hub.Send(client, data) {
		that.logger.Debug("message dropped", "action", action, "clientID", client.id)
	}
}

func (that *Server) broadcast(group, action string, payload any) {
	that.broadcastExcept(group, action, payload, nil)
}

func (that *Server) broadcastExcept(group, action string, payload any, except *Client) {
	data, err := encode(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "action", action, "error", err)
		return
	}

	that.hub.BroadcastExcept(group, data, except)
}

func (that *Server) sendError(client *Client, action string, err error) {
	that.send(client, actionError, errorPayload{
		Action: action,
		Code:   errorCode(err),
		Error:  err.Error(),
	})
}
