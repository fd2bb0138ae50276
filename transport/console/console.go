// Package console runs a hot-seat game in a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/presenter"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

const help = "Enter a cell 0-8 to move, r to reset, q to quit."

type gameController interface {
	ApplyMove(cell int) tictactoe.MoveResult
	Reset() entity.Game
	Snapshot() entity.Game
	Subscribe(listener tictactoe.Listener)
}

type Console struct {
	game gameController
	in   *bufio.Scanner
	out  io.Writer
}

// New subscribes the console to game events and returns it.
func New(game gameController, in io.Reader, out io.Writer) *Console {
	that := &Console{
		game: game,
		in:   bufio.NewScanner(in),
		out:  out,
	}
	game.Subscribe(tictactoe.ListenerFunc(that.announce))

	return that
}

// Run reads commands until quit, end of input or ctx cancellation.
func (that *Console) Run(ctx context.Context) error {
	that.printf("%s\n\n", help)
	that.render(that.game.Snapshot())

	stop := make(chan struct{})
	defer close(stop)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go that.readLines(lines, readErr, stop)

	for {
		if ctx.Err() != nil {
			return nil
		}

		that.printf("> ")

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}

				return nil
			}

			if quit := that.execute(strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// readLines runs apart from Run so that a blocked read never delays cancellation.
func (that *Console) readLines(lines chan<- string, readErr chan<- error, stop <-chan struct{}) {
	defer close(lines)

	for that.in.Scan() {
		select {
		case lines <- that.in.Text():
		case <-stop:
			return
		}
	}

	readErr <- that.in.Err()
}

func (that *Console) execute(command string) bool {
	switch strings.ToLower(command) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "r", "reset":
		that.render(that.game.Reset())
		return false
	case "h", "help", "?":
		that.printf("%s\n", help)
		return false
	}

	cell, err := strconv.Atoi(command)
	if err != nil {
		that.printf("Unknown command %q. %s\n", command, help)
		return false
	}

	result := that.game.ApplyMove(cell)
	that.render(result.Game)

	return false
}

// announce prints a line for events that change the outcome.
func (that *Console) announce(event entity.Event) error {
	switch event.Type {
	case entity.EventGameEnded:
		that.printf("*** %s ***\n", presenter.StatusText(event.Game))
	case entity.EventGameReset:
		that.printf("*** New game ***\n")
	}

	return nil
}

func (that *Console) render(game entity.Game) {
	that.printf("\n%s\n%s\n", presenter.RenderBoard(game), presenter.StatusText(game))
}

func (that *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(that.out, format, args...)
}
