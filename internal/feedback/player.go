package feedback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrEmptyCommand = errors.New("player command is empty")

// Player plays an audio file.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer runs an external program with the file path as its last argument,
// e.g. "aplay -q" or "afplay".
type CommandPlayer struct {
	name string
	args []string
}

func NewCommandPlayer(command string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	return &CommandPlayer{name: fields[0], args: fields[1:]}, nil
}

func (that *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string{}, that.args...), path)

	output, err := exec.CommandContext(ctx, that.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", that.name, err, strings.TrimSpace(string(output)))
	}

	return nil
}
