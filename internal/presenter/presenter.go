// Package presenter turns game snapshots into the text shown to players.
package presenter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const drawText = "It's a Draw!"

// StatusText returns the status line for the game.
func StatusText(game entity.Game) string {
	switch {
	case game.Status.IsWon():
		return fmt.Sprintf("Player %s Wins!", game.Status.Winner)
	case game.Status.IsDrawn():
		return drawText
	default:
		return fmt.Sprintf("Player %s's Turn", game.Turn)
	}
}

// RenderBoard draws the board as a 3x3 grid. Empty cells show their index,
// cells of the winning line are bracketed.
func RenderBoard(game entity.Game) string {
	var sb strings.Builder

	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("-----+-----+-----\n")
		}

		for col := 0; col < 3; col++ {
			if col > 0 {
				sb.WriteString("|")
			}

			cell := row*3 + col
			sb.WriteString(renderCell(game, cell))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func renderCell(game entity.Game, cell int) string {
	mark := game.Board[cell]
	if mark == entity.EmptyCell {
		return "  " + strconv.Itoa(cell) + "  "
	}

	if game.Status.InWinningLine(cell) {
		return " [" + string(mark) + "] "
	}

	return "  " + string(mark) + "  "
}
