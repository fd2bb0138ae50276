package tictactoe

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	x = entity.PlayerX
	o = entity.PlayerO
)

type recorder struct {
	events []entity.Event
}

func (that *recorder) HandleEvent(event entity.Event) error {
	that.events = append(that.events, event)
	return nil
}

func (that *recorder) types() []entity.EventType {
	types := make([]entity.EventType, 0, len(that.events))
	for _, event := range that.events {
		types = append(types, event.Type)
	}
	return types
}

func newController(t *testing.T) (*GameController, *recorder) {
	t.Helper()

	controller := NewGameController(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &recorder{}
	controller.Subscribe(rec)

	return controller, rec
}

func play(t *testing.T, controller *GameController, cells ...int) {
	t.Helper()

	for _, cell := range cells {
		result := controller.ApplyMove(cell)
		require.True(t, result.Accepted, "move %d rejected: %v", cell, result.Reason)
	}
}

func TestNewGameController(t *testing.T) {
	// When: a new controller is created
	controller, _ := newController(t)

	// Then: the board is empty, X moves first and the game is in progress
	game := controller.Snapshot()
	assert.Equal(t, entity.Board{}, game.Board)
	assert.Equal(t, x, game.Turn)
	assert.Equal(t, entity.InProgress(), game.Status)
	assert.NotEmpty(t, game.ID)
}

func TestGameController_ApplyMove(t *testing.T) {
	t.Run("Accepted move places the mark and advances the turn", func(t *testing.T) {
		// Given: a new game
		controller, rec := newController(t)

		// When: X plays the centre
		result := controller.ApplyMove(4)

		// Then: the move is accepted and it's O's turn
		require.True(t, result.Accepted)
		require.NoError(t, result.Reason)
		assert.Equal(t, x, result.Game.Board[4])
		assert.Equal(t, o, result.Game.Turn)

		// And: a MoveApplied event carries the cell and mark
		require.Len(t, rec.events, 1)
		assert.Equal(t, entity.EventMoveApplied, rec.events[0].Type)
		assert.Equal(t, 4, rec.events[0].Cell)
		assert.Equal(t, x, rec.events[0].Mark)
		assert.Equal(t, result.Game.ID, rec.events[0].RoundID)
	})

	t.Run("Turn alternates between accepted moves", func(t *testing.T) {
		// Given: a new game with X to move
		controller, _ := newController(t)

		// When/Then: turns flip after every non-terminal move
		play(t, controller, 0)
		assert.Equal(t, o, controller.Snapshot().Turn)

		play(t, controller, 1)
		assert.Equal(t, x, controller.Snapshot().Turn)
	})

	t.Run("Move on occupied cell is rejected without state change", func(t *testing.T) {
		// Given: X occupies cell 0
		controller, rec := newController(t)
		play(t, controller, 0)
		before := controller.Snapshot()

		// When: O tries the same cell
		result := controller.ApplyMove(0)

		// Then: the move is rejected with ErrCellOccupied
		assert.False(t, result.Accepted)
		require.ErrorIs(t, result.Reason, apperror.ErrCellOccupied)
		require.ErrorIs(t, result.Reason, apperror.ErrInvalidMove)

		// And: board, turn and status are unchanged, no event is emitted
		assert.Equal(t, before, controller.Snapshot())
		assert.Equal(t, before, result.Game)
		assert.Len(t, rec.events, 1)
	})

	t.Run("Out of range cells are rejected", func(t *testing.T) {
		for _, cell := range []int{-1, 9, 20} {
			// Given: a new game
			controller, rec := newController(t)
			before := controller.Snapshot()

			// When: an invalid index is played
			result := controller.ApplyMove(cell)

			// Then: ErrInvalidCell and nothing changes
			assert.False(t, result.Accepted)
			require.ErrorIs(t, result.Reason, apperror.ErrInvalidCell)
			assert.Equal(t, before, controller.Snapshot())
			assert.Empty(t, rec.events)
		}
	})

	t.Run("Filled cells equal accepted moves", func(t *testing.T) {
		// Given: a new game
		controller, _ := newController(t)
		accepted := 0

		// When: a mix of valid and invalid moves is played
		for _, cell := range []int{4, 4, 0, 9, 8, 0, 2, -3} {
			if controller.ApplyMove(cell).Accepted {
				accepted++
			}

			// Then: the number of filled cells tracks accepted moves
			board := controller.Snapshot().Board
			assert.Equal(t, accepted, board.Filled())
		}
		assert.Equal(t, 4, accepted)
	})
}

func TestGameController_Win(t *testing.T) {
	// Given: a new game
	controller, rec := newController(t)

	// When: X plays 0,1,2 while O plays 3,4
	play(t, controller, 0, 3, 1, 4, 2)

	// Then: X wins on the top row
	game := controller.Snapshot()
	assert.Equal(t, entity.Won(x, entity.Line{0, 1, 2}), game.Status)
	assert.Equal(t, game.Status, controller.Evaluate())

	// And: the turn is not advanced after the winning move
	assert.Equal(t, x, game.Turn)

	// And: the last move is followed by a GameEnded event
	require.Len(t, rec.events, 6)
	ended := rec.events[5]
	assert.Equal(t, entity.EventGameEnded, ended.Type)
	assert.Equal(t, x, ended.Status.Winner)
	require.NotNil(t, ended.Status.Line)
	assert.Equal(t, entity.Line{0, 1, 2}, *ended.Status.Line)

	// When: O tries to keep playing
	result := controller.ApplyMove(5)

	// Then: the move is rejected and nothing changes
	assert.False(t, result.Accepted)
	require.ErrorIs(t, result.Reason, apperror.ErrGameFinished)
	assert.Equal(t, game, controller.Snapshot())
	assert.Len(t, rec.events, 6)
}

func TestGameController_Draw(t *testing.T) {
	// Given: a new game
	controller, rec := newController(t)

	// When: nine moves fill the board without a line
	play(t, controller, 0, 1, 2, 4, 7, 6, 3, 5, 8)

	// Then: the game is drawn
	game := controller.Snapshot()
	assert.Equal(t, entity.Board{x, o, x, x, o, o, o, x, x}, game.Board)
	assert.Equal(t, entity.Drawn(), game.Status)
	assert.Equal(t, entity.EventGameEnded, rec.events[len(rec.events)-1].Type)

	// And: further moves are rejected
	result := controller.ApplyMove(0)
	require.ErrorIs(t, result.Reason, apperror.ErrGameFinished)
	assert.Equal(t, game, controller.Snapshot())
}

func TestGameController_Reset(t *testing.T) {
	t.Run("Reset after a win restores the initial state", func(t *testing.T) {
		// Given: a won game
		controller, rec := newController(t)
		play(t, controller, 0, 3, 1, 4, 2)
		finished := controller.Snapshot()

		// When: the game is reset
		game := controller.Reset()

		// Then: the board is empty, X moves and the game is in progress
		assert.Equal(t, entity.Board{}, game.Board)
		assert.Equal(t, x, game.Turn)
		assert.Equal(t, entity.InProgress(), game.Status)
		assert.Equal(t, game, controller.Snapshot())

		// And: a new round has started and a GameReset event was emitted
		assert.NotEqual(t, finished.ID, game.ID)
		last := rec.events[len(rec.events)-1]
		assert.Equal(t, entity.EventGameReset, last.Type)
		assert.Equal(t, game.ID, last.RoundID)
	})

	t.Run("Reset mid-game and on a fresh game", func(t *testing.T) {
		// Given: a game in progress
		controller, rec := newController(t)
		play(t, controller, 4, 0)

		// When: the game is reset twice
		controller.Reset()
		game := controller.Reset()

		// Then: both resets succeed
		assert.Equal(t, entity.Board{}, game.Board)
		assert.Equal(t, x, game.Turn)
		assert.Equal(t, []entity.EventType{
			entity.EventMoveApplied, entity.EventMoveApplied, entity.EventGameReset, entity.EventGameReset,
		}, rec.types())

		// And: moves are accepted again
		play(t, controller, 4)
	})
}

func TestGameController_ListenerFailures(t *testing.T) {
	// Given: listeners that fail and panic, followed by a recording one
	controller := NewGameController(slog.New(slog.NewTextHandler(io.Discard, nil)))
	controller.Subscribe(ListenerFunc(func(entity.Event) error {
		return errors.New("audio device unavailable")
	}))
	controller.Subscribe(ListenerFunc(func(entity.Event) error {
		panic("boom")
	}))
	rec := &recorder{}
	controller.Subscribe(rec)

	// When: a move is played
	result := controller.ApplyMove(0)

	// Then: the transition still happens and later listeners still run
	require.True(t, result.Accepted)
	assert.Equal(t, x, controller.Snapshot().Board[0])
	assert.Equal(t, o, controller.Snapshot().Turn)
	assert.Len(t, rec.events, 1)

	// And: reset also survives failing listeners
	game := controller.Reset()
	assert.Equal(t, entity.Board{}, game.Board)
	assert.Len(t, rec.events, 2)
}

func TestGameController_DrawOnLastCell(t *testing.T) {
	// Given: eight moves with no line and X to play the last empty cell
	controller, _ := newController(t)
	play(t, controller, 0, 1, 2, 4, 3, 5, 7, 6)
	require.Equal(t, entity.InProgress(), controller.Evaluate())
	require.Equal(t, x, controller.Snapshot().Turn)

	// When: X fills cell 8
	play(t, controller, 8)

	// Then: the full board is evaluated as a draw and the turn stays with X
	game := controller.Snapshot()
	assert.Equal(t, entity.Drawn(), game.Status)
	assert.Equal(t, x, game.Turn)
}
