package tictactoe

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// Listener reacts to game events. Errors and panics are logged by the
// controller and never affect game state.
type Listener interface {
	HandleEvent(event entity.Event) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event entity.Event) error

func (that ListenerFunc) HandleEvent(event entity.Event) error {
	return that(event)
}

// MoveResult tells the caller whether a move was accepted. Reason wraps
// apperror.ErrInvalidMove when it was not.
type MoveResult struct {
	Accepted bool
	Reason   error
	Game     entity.Game
}

// GameController is the single owner of the board. Requests are processed
// one at a time, including event dispatch, so listeners must not call back
// into the controller.
type GameController struct {
	logger *slog.Logger

	mu      sync.Mutex
	roundID string
	board   entity.Board
	turn    entity.Mark

	listeners []Listener
}

func NewGameController(logger *slog.Logger) *GameController {
	that := &GameController{
		logger: logger.With("component", "game_controller"),
	}
	that.restart()

	return that
}

// Subscribe registers a listener for all subsequent events.
func (that *GameController) Subscribe(listener Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listeners = append(that.listeners, listener)
}

// ApplyMove places the current mark on cell. Invalid moves leave the state untouched.
func (that *GameController) ApplyMove(cell int) MoveResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.validateMove(cell); err != nil {
		that.logger.Debug("move rejected", "cell", cell, "reason", err)

		return MoveResult{Reason: err, Game: that.snapshot()}
	}

	mark := that.turn
	that.board[cell] = mark

	status := that.evaluate()
	if !status.IsTerminal() {
		that.advanceTurn()
	}

	game := that.snapshot()
	that.emit(entity.Event{Type: entity.EventMoveApplied, Cell: cell, Mark: mark, Status: status, Game: game})

	if status.IsTerminal() {
		that.logger.Info("game ended", "round", that.roundID, "outcome", status.Outcome, "winner", status.Winner)
		that.emit(entity.Event{Type: entity.EventGameEnded, Cell: cell, Mark: mark, Status: status, Game: game})
	}

	return MoveResult{Accepted: true, Game: game}
}

// Evaluate returns the status derived from the current board.
func (that *GameController) Evaluate() entity.Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.evaluate()
}

// Reset restores the initial state regardless of the current status.
func (that *GameController) Reset() entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.restart()

	game := that.snapshot()
	that.logger.Info("game reset", "round", that.roundID)
	that.emit(entity.Event{Type: entity.EventGameReset, Status: game.Status, Game: game})

	return game
}

// Snapshot returns a copy of the current state.
func (that *GameController) Snapshot() entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

func (that *GameController) validateMove(cell int) error {
	if that.evaluate().IsTerminal() {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(that.board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}

func (that *GameController) evaluate() entity.Status {
	return entity.Evaluate(that.board)
}

// advanceTurn is only called after a move that left the game in progress.
func (that *GameController) advanceTurn() {
	that.turn = that.turn.Opponent()
}

func (that *GameController) restart() {
	that.roundID = uuid.NewString()
	that.board = entity.Board{}
	that.turn = entity.PlayerX
}

func (that *GameController) snapshot() entity.Game {
	return entity.Game{
		ID:     that.roundID,
		Board:  that.board,
		Turn:   that.turn,
		Status: that.evaluate(),
	}
}

func (that *GameController) emit(event entity.Event) {
	event.RoundID = that.roundID

	for _, listener := range that.listeners {
		that.dispatch(listener, event)
	}
}

func (that *GameController) dispatch(listener Listener, event entity.Event) {
	log := that.logger.With("method", "dispatch", "event", event.Type)

	defer func() {
		if err := recover(); err != nil {
			log.Error("listener panicked", "error", err)
		}
	}()

	if err := listener.HandleEvent(event); err != nil {
		log.Warn("listener failed", "error", err)
	}
}
