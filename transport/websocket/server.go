package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/presenter"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

const shutdownTimeout = 5 * time.Second

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrCellRequired  = errors.New("cell is required")
)

type gameController interface {
	ApplyMove(cell int) tictactoe.MoveResult
	Reset() entity.Game
	Snapshot() entity.Game
}

// Server streams game events to every connected client and forwards client
// requests to the game controller.
type Server struct {
	logger   *slog.Logger
	game     gameController
	upgrader websocket.Upgrader

	clientsMutex sync.RWMutex
	clients      map[*client]struct{}

	handlers map[string]func(c *client, msg *Message) error
}

func New(logger *slog.Logger, game gameController) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		game:   game,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		clients:  make(map[*client]struct{}),
		handlers: make(map[string]func(*client, *Message) error),
	}

	server.handlers[actionTurn] = server.handleGameTurn
	server.handlers[actionReset] = server.handleGameReset
	server.handlers[actionState] = server.handleGameState

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}

		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// HandleEvent broadcasts a game event. Clients whose send buffer is full are disconnected.
func (that *Server) HandleEvent(event entity.Event) error {
	msg, err := newMessage(string(event.Type), event)
	if err != nil {
		return err
	}

	var slow []*client

	that.clientsMutex.RLock()
	for c := range that.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	that.clientsMutex.RUnlock()

	for _, c := range slow {
		that.logger.Warn("client is too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
		that.removeClient(c)
	}

	return nil
}

// serveWS - upgrades the connection to WebSocket and serves it until it is closed.
func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS", "remote", r.RemoteAddr)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn)
	that.addClient(c)

	log.Info("WebSocket connection established")

	go func() {
		if err := c.writePump(); err != nil {
			log.Debug("write pump stopped", "error", err)
		}
	}()

	if err = that.handleGameState(c, &Message{Action: actionState}); err != nil {
		log.Error("failed to send initial state", "error", err)
	}

	if err = that.handleMessages(c); err != nil {
		log.Debug("connection closed", "error", err)
	}

	that.removeClient(c)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(c *client) error {
	log := that.logger.With("method", "handleMessages")

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(c, "invalid message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(c, fmt.Sprintf("%s: %q", ErrUnknownAction, message.Action))
			continue
		}

		if err = handler(c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) handleGameTurn(c *client, msg *Message) error {
	var payload Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			that.sendError(c, "invalid payload")
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	if payload.Cell == nil {
		that.sendError(c, ErrCellRequired.Error())
		return nil
	}

	// accepted moves reach every client through HandleEvent
	result := that.game.ApplyMove(*payload.Cell)
	if !result.Accepted {
		return that.send(c, actionError, Payload{
			Game:    &result.Game,
			Message: presenter.StatusText(result.Game),
			Error:   result.Reason.Error(),
		})
	}

	return nil
}

func (that *Server) handleGameReset(_ *client, _ *Message) error {
	that.game.Reset()

	return nil
}

func (that *Server) handleGameState(c *client, _ *Message) error {
	game := that.game.Snapshot()

	return that.send(c, actionState, Payload{Game: &game, Message: presenter.StatusText(game)})
}

func (that *Server) sendError(c *client, message string) {
	if err := that.send(c, actionError, Payload{Error: message}); err != nil {
		that.logger.Error("failed to send error", "error", err)
	}
}

func (that *Server) send(c *client, action string, payload Payload) error {
	msg, err := newMessage(action, payload)
	if err != nil {
		return err
	}

	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	if _, ok := that.clients[c]; !ok {
		return nil
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return fmt.Errorf("send buffer full for %s", c.conn.RemoteAddr())
	}
}

func (that *Server) addClient(c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	that.clients[c] = struct{}{}
}

func (that *Server) removeClient(c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	delete(that.clients, c)
	c.close()
}

func (that *Server) closeAll() {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	for c := range that.clients {
		delete(that.clients, c)
		c.close()
	}
}

// ClientCount returns the number of connected clients.
func (that *Server) ClientCount() int {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	return len(that.clients)
}
