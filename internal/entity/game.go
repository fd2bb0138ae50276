package entity

// Mark is a player symbol occupying a cell.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// Opponent returns the other player's mark. EmptyCell has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

// BoardSize is the number of cells on the board.
const BoardSize = 9

// Board holds cell values in row-major order:
//
//	0 | 1 | 2
//	3 | 4 | 5
//	6 | 7 | 8
type Board [BoardSize]Mark

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Filled returns the number of occupied cells.
func (that Board) Filled() int {
	filled := 0
	for _, cell := range that {
		if cell != EmptyCell {
			filled++
		}
	}

	return filled
}

// Line is an index triple which wins the game when uniformly occupied.
type Line [3]int

// Contains reports whether cell is part of the line.
func (that Line) Contains(cell int) bool {
	return that[0] == cell || that[1] == cell || that[2] == cell
}

// WinningLines are scanned in this order, the first complete line is reported.
var WinningLines = [8]Line{
	// rows
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	// columns
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	// diagonals
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate derives the game status from the board.
func Evaluate(board Board) Status {
	for _, line := range WinningLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != EmptyCell && a == b && b == c {
			return Won(a, line)
		}
	}

	// the game will continue until all the squares are full
	if !board.IsFull() {
		return InProgress()
	}

	return Drawn()
}

// Game is a point-in-time copy of the game state.
type Game struct {
	ID     string `json:"id"`
	Board  Board  `json:"board"`
	Turn   Mark   `json:"turn"`
	Status Status `json:"status"`
}

func (that *Game) IsFinished() bool {
	return that.Status.IsTerminal()
}
