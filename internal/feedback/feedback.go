// Package feedback plays short synthesized tones in reaction to game events.
// Playback never blocks the game and its failures are only logged.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

type cueSource interface {
	Path(cue Cue) (string, bool)
}

type Feedback struct {
	logger  *slog.Logger
	cues    cueSource
	player  Player
	timeout time.Duration

	wg sync.WaitGroup
}

func New(logger *slog.Logger, cues cueSource, player Player, timeout time.Duration) *Feedback {
	return &Feedback{
		logger:  logger.With("component", "feedback"),
		cues:    cues,
		player:  player,
		timeout: timeout,
	}
}

// HandleEvent starts playback of the matching cue and returns immediately.
func (that *Feedback) HandleEvent(event entity.Event) error {
	cue, ok := CueFor(event)
	if !ok {
		return nil
	}

	path, ok := that.cues.Path(cue)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCue, cue)
	}

	that.wg.Add(1)
	go that.play(cue, path)

	return nil
}

// Wait blocks until every started playback has finished.
func (that *Feedback) Wait() {
	that.wg.Wait()
}

func (that *Feedback) play(cue Cue, path string) {
	log := that.logger.With("method", "play", "cue", cue)

	defer that.wg.Done()
	defer func() {
		if err := recover(); err != nil {
			log.Error("playback panicked", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), that.timeout)
	defer cancel()

	if err := that.player.Play(ctx, path); err != nil {
		log.Warn("failed to play cue", "error", err)
	}
}
