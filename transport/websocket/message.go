package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const (
	actionLobbyJoin   = "lobby:join"
	actionLobbyJoined = "lobby:joined"
	actionGameList    = "game:list"
	actionGameGet     = "game:get"
	actionGameState   = "game:state"
	actionGameNew     = "game:new"
	actionGameCreated = "game:created"
	actionGameJoin    = "game:join"
	actionGameLeave   = "game:leave"
	actionGameStart   = "game:start"
	actionGameStarted = "game:started"
	actionGameTurn    = "game:turn"
	actionGameEnded   = "game:finished"

	actionPlayerJoined = "player:joined"
	actionPlayerReady  = "player:ready"
	actionPlayerState  = "player:state"
	actionPlayerLeft   = "player:left"

	actionError = "error"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type gameRequest struct {
	GameID string `json:"game_id"`
}

type newGameRequest struct {
	Size     int  `json:"size"`
	IsPublic bool `json:"is_public"`
}

type joinRequest struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

type readyRequest struct {
	GameID string `json:"game_id"`
	Ready  bool   `json:"ready"`
}

type turnRequest struct {
	GameID string `json:"game_id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type gamePayload struct {
	Game entity.GameSnapshot `json:"game"`
}

type gamesPayload struct {
	Games []usecase.PublicGame `json:"games"`
}

type playerPayload struct {
	GameID string                `json:"game_id"`
	Player entity.PlayerSnapshot `json:"player"`
	Game   entity.GameSnapshot   `json:"game"`
}

type turnPayload struct {
	Placed bool                `json:"placed"`
	Row    int                 `json:"row"`
	Col    int                 `json:"col"`
	Game   entity.GameSnapshot `json:"game"`
}

type errorPayload struct {
	Action string `json:"action"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

func encode(action string, payload any) ([]byte, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: rawPayload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 || bytes.Equal(bytes.TrimSpace(msg.Payload), []byte("null")) {
		return fmt.Errorf("%w: payload is required", errBadRequest)
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

var (
	errBadRequest    = errors.New("bad request")
	errUnknownAction = errors.New("unknown action")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{apperror.ErrGameNotFound, "game_not_found"},
	{apperror.ErrPlayerNotFound, "player_not_found"},
	{apperror.ErrGameFull, "game_full"},
	{apperror.ErrGameNotFull, "game_not_full"},
	{apperror.ErrDuplicatePlayer, "duplicate_player"},
	{apperror.ErrNotYourTurn, "wrong_turn"},
	{apperror.ErrOutOfRange, "out_of_range"},
	{apperror.ErrInvalidState, "invalid_state"},
	{apperror.ErrInvalidBoardSize, "invalid_board_size"},
	{errBadRequest, "bad_request"},
	{errUnknownAction, "unknown_action"},
}

func errorCode(err error) string {
	for _, known := range errorCodes {
		if errors.Is(err, known.err) {
			return known.code
		}
	}

	return "internal"
}
