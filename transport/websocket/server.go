package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/pkg"
)

type uGame interface {
	GetOrCreatePlayer(ctx context.Context, wallet string) (*entity.Player, error)

	CreateGame(ctx context.Context, playerA string, stake int64, size int, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, wallet string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, wallet string, cell int) (*entity.Game, error)

	GetGame(ctx context.Context, id string) (*entity.Game, error)
	GetGameByPlayer(ctx context.Context, wallet string) (*entity.Game, error)
	GetWaitingGames(ctx context.Context) ([]*entity.Game, error)
}

// connection wraps a hijacked client stream with a write lock. The read loop,
// Broadcast and REST-triggered notifications all write to the same stream, so
// every frame goes out under writeMutex.
type connection struct {
	bufrw *bufio.ReadWriter

	writeMutex sync.Mutex
}

type Server struct {
	logger *slog.Logger
	uGame  uGame

	handlers map[string]func(ctx context.Context, message *Message, conn *connection) error

	connectionsMutex sync.RWMutex
	connections      map[string]*connection

	watchersMutex sync.RWMutex
	watchers      map[string]map[*connection]struct{}
	lobbyWatchers map[*connection]struct{}
}

func New(logger *slog.Logger, uGame uGame) *Server {
	server := &Server{
		logger: logger,
		uGame:  uGame,

		handlers:      make(map[string]func(context.Context, *Message, *connection) error),
		connections:   make(map[string]*connection),
		watchers:      make(map[string]map[*connection]struct{}),
		lobbyWatchers: make(map[*connection]struct{}),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:join"] = server.handleJoinGame
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:subscribe"] = server.handleSubscribe
	server.handlers["lobby:subscribe"] = server.handleLobbySubscribe

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	that.setSessionCookie(writer, req)

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	log.Info("WebSocket connection established")

	conn := &connection{bufrw: bufrw}

	if err = that.handleMessages(ctx, conn); err != nil && !errors.Is(err, io.EOF) {
		log.Error("error handling messages", "error", err)
	}

	that.handleDisconnect(conn)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := readRequest(conn.bufrw)
		if err != nil {
			return err
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// setSessionCookie - set user session.
func (that *Server) setSessionCookie(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "setSessionCookie")

	if _, err := req.Cookie("user_session"); err == nil {
		return
	}

	cookie := &http.Cookie{
		Name:    "user_session",
		Value:   pkg.GenerateNewSessionID(),
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/ws",
	}
	http.SetCookie(writer, cookie)
	log.Info("session cookie not found, new one created")
}

// Broadcast sends the match snapshot to both seated players, to everyone
// watching the match, and, while the match is still joinable, to lobby
// watchers.
func (that *Server) Broadcast(action string, game *entity.Game) {
	log := that.logger.With("method", "Broadcast", "action", action, "gameID", game.ID)

	targets := make(map[*connection]struct{})

	that.connectionsMutex.RLock()
	for _, wallet := range []string{game.PlayerA, game.PlayerB} {
		if conn, ok := that.connections[wallet]; ok {
			targets[conn] = struct{}{}
		}
	}
	that.connectionsMutex.RUnlock()

	that.watchersMutex.RLock()
	for conn := range that.watchers[game.ID] {
		targets[conn] = struct{}{}
	}
	if game.IsWaiting() {
		for conn := range that.lobbyWatchers {
			targets[conn] = struct{}{}
		}
	}
	that.watchersMutex.RUnlock()

	payload := Payload{Game: game}
	for conn := range targets {
		if err := that.sendMessage(conn, action, payload); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}

func (that *Server) handleDisconnect(conn *connection) {
	log := that.logger.With("method", "handleDisconnect")

	that.connectionsMutex.Lock()
	for wallet, registered := range that.connections {
		if registered == conn {
			delete(that.connections, wallet)
			log.Info("player disconnected", "wallet", wallet)
			break
		}
	}
	that.connectionsMutex.Unlock()

	that.watchersMutex.Lock()
	for gameID, conns := range that.watchers {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(that.watchers, gameID)
		}
	}
	delete(that.lobbyWatchers, conn)
	that.watchersMutex.Unlock()
}
