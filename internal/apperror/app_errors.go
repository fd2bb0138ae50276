package apperror

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is the single class of move failure. Every rejection reason wraps it.
var ErrInvalidMove = errors.New("invalid move")

var (
	ErrInvalidCell  = fmt.Errorf("%w: invalid cell index", ErrInvalidMove)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrGameFinished = fmt.Errorf("%w: game is already finished", ErrInvalidMove)
)
