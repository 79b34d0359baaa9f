package websocket

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

func (that *Server) handleLobbyJoin(ctx context.Context, client *Client, _ *Message) error {
	that.hub.Join(lobbyGroup, client)

	that.send(client, actionLobbyJoined, gamesPayload{Games: that.uGame.PublicGames(ctx)})

	return nil
}

func (that *Server) handleGameList(ctx context.Context, client *Client, _ *Message) error {
	that.send(client, actionGameList, gamesPayload{Games: that.uGame.PublicGames(ctx)})

	return nil
}

func (that *Server) handleGameGet(ctx context.Context, client *Client, msg *Message) error {
	var req gameRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	game, err := that.uGame.GetGame(ctx, req.GameID)
	if err != nil {
		return err
	}

	that.send(client, actionGameState, gamePayload{Game: game})

	return nil
}

// handleNewGame creates a game and subscribes the caller to it. The caller still has to join to take a seat.
func (that *Server) handleNewGame(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleNewGame")

	var req newGameRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	game, err := that.uGame.CreateGame(ctx, req.Size, req.IsPublic)
	if err != nil {
		return err
	}

	that.hub.Join(game.ID, client)

	payload := gamePayload{Game: game}
	that.send(client, actionGameCreated, payload)

	if game.IsPublic {
		that.broadcastExcept(lobbyGroup, actionGameCreated, payload, client)
	}

	log.Info("game created", "gameID", game.ID, "clientID", client.id)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, client *Client, msg *Message) error {
	var req joinRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	result, err := that.uGame.JoinGame(ctx, req.GameID, client.id, req.Name)
	if err != nil {
		return err
	}

	that.hub.Join(req.GameID, client)

	that.broadcast(req.GameID, actionPlayerJoined, playerPayload{
		GameID: req.GameID,
		Player: result.Player,
		Game:   result.Game,
	})

	return nil
}

func (that *Server) handlePlayerReady(ctx context.Context, client *Client, msg *Message) error {
	var req readyRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	result, err := that.uGame.SetReady(ctx, req.GameID, client.id, req.Ready)
	if err != nil {
		return err
	}

	that.broadcast(req.GameID, actionPlayerState, playerPayload{
		GameID: req.GameID,
		Player: result.Player,
		Game:   result.Game,
	})

	if result.Started {
		that.broadcast(req.GameID, actionGameStarted, gamePayload{Game: result.Game})
	}

	return nil
}

func (that *Server) handleGameLeave(ctx context.Context, client *Client, msg *Message) error {
	var req gameRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	result, err := that.uGame.LeaveGame(ctx, req.GameID, client.id)
	if err != nil {
		return err
	}

	that.hub.Leave(req.GameID, client)

	payload := playerPayload{
		GameID: req.GameID,
		Player: result.Player,
		Game:   result.Game,
	}

	that.send(client, actionPlayerLeft, payload)
	that.broadcast(req.GameID, actionPlayerLeft, payload)

	return nil
}

func (that *Server) handleGameStart(ctx context.Context, _ *Client, msg *Message) error {
	var req gameRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	game, err := that.uGame.StartGame(ctx, req.GameID)
	if err != nil {
		return err
	}

	that.broadcast(req.GameID, actionGameStarted, gamePayload{Game: game})

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleGameTurn")

	var req turnRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	result, err := that.uGame.MakeMove(ctx, req.GameID, client.id, req.Row, req.Col)
	if err != nil {
		return fmt.Errorf("game %s: %w", req.GameID, err)
	}

	that.broadcast(req.GameID, actionGameTurn, turnPayload{
		Placed: result.Placed,
		Row:    req.Row,
		Col:    req.Col,
		Game:   result.Game,
	})

	if result.Placed && result.Game.State == entity.StatusFinished {
		that.broadcast(req.GameID, actionGameEnded, gamePayload{Game: result.Game})
		log.Info("game finished", "gameID", req.GameID)
	}

	return nil
}
