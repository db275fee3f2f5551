package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/repository"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	player, err := that.uGame.GetOrCreatePlayer(ctx, payloadReq.Player.Wallet)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to create a new player")
	}

	that.connectionsMutex.Lock()
	that.connections[player.Wallet] = conn
	that.connectionsMutex.Unlock()

	payloadResp := Payload{
		Player: player,
	}

	if player.GameID != "" {
		game, gameErr := that.uGame.GetGame(ctx, player.GameID)
		if gameErr != nil && !errors.Is(gameErr, repository.ErrGameNotFound) {
			log.Error("failed to get game", "gameID", player.GameID, "error", gameErr)
			return that.sendErrorResponse(conn, msg.Action, "failed to get the game")
		}

		payloadResp.Game = game
	}

	if err = that.sendMessage(conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "wallet", player.Wallet)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.connectionsMutex.Lock()
	that.connections[payloadReq.Player.Wallet] = conn
	that.connectionsMutex.Unlock()

	size := payloadReq.Game.Size
	if size == 0 {
		size = entity.BoardSize3x3
	}

	gameType := payloadReq.Game.Type
	if gameType == "" {
		gameType = entity.PublicType
	}

	game, err := that.uGame.CreateGame(ctx, payloadReq.Player.Wallet, payloadReq.Game.Stake, size, gameType)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("failed to create game: %v", err))
	}

	log.Info("created game", "gameID", game.ID, "wallet", payloadReq.Player.Wallet)

	that.Broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleJoinGame")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.connectionsMutex.Lock()
	that.connections[payloadReq.Player.Wallet] = conn
	that.connectionsMutex.Unlock()

	log = log.With("wallet", payloadReq.Player.Wallet)

	game, err := that.uGame.JoinGame(ctx, payloadReq.Game.ID, payloadReq.Player.Wallet)
	if err != nil {
		log.Error("failed to join game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	log.Info("player joined game", "gameID", game.ID)

	that.Broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameTurn")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	if payloadReq.Cell == nil {
		log.Error("Cell is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Cell is required")
	}

	that.connectionsMutex.Lock()
	that.connections[payloadReq.Player.Wallet] = conn
	that.connectionsMutex.Unlock()

	log = log.With("wallet", payloadReq.Player.Wallet)

	gameID := ""
	if payloadReq.Game != nil {
		gameID = payloadReq.Game.ID
	}

	if gameID == "" {
		current, err := that.uGame.GetGameByPlayer(ctx, payloadReq.Player.Wallet)
		if err != nil {
			log.Error("failed to find game for player", "error", err)
			return that.sendErrorResponse(conn, msg.Action, "player is not in a game")
		}

		gameID = current.ID
	}

	game, err := that.uGame.MakeTurn(ctx, gameID, payloadReq.Player.Wallet, *payloadReq.Cell)
	if err != nil {
		log.Error("failed to make turn", "gameID", gameID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("game %s: %v", gameID, err))
	}

	log.Info("player made a turn", "gameID", game.ID)

	if game.IsFinished() {
		that.Broadcast("game:finished", game)
		return nil
	}

	that.Broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleSubscribe(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleSubscribe")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Game == nil || payloadReq.Game.ID == "" {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	game, err := that.uGame.GetGame(ctx, payloadReq.Game.ID)
	if err != nil {
		log.Error("failed to get game", "gameID", payloadReq.Game.ID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	that.watchersMutex.Lock()
	if that.watchers[game.ID] == nil {
		that.watchers[game.ID] = make(map[*connection]struct{})
	}
	that.watchers[game.ID][conn] = struct{}{}
	that.watchersMutex.Unlock()

	log.Info("subscribed to game", "gameID", game.ID)

	return that.sendMessage(conn, msg.Action, Payload{Game: game})
}

func (that *Server) handleLobbySubscribe(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleLobbySubscribe")

	games, err := that.uGame.GetWaitingGames(ctx)
	if err != nil {
		log.Error("failed to get waiting games", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to get waiting games")
	}

	that.watchersMutex.Lock()
	that.lobbyWatchers[conn] = struct{}{}
	that.watchersMutex.Unlock()

	log.Info("subscribed to lobby", "waiting", len(games))

	return that.sendMessage(conn, msg.Action, Payload{Games: games})
}

func (that *Server) sendErrorResponse(conn *connection, action, errorMsg string) error {
	payload := Payload{Error: errorMsg}
	if err := that.sendMessage(conn, action, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
