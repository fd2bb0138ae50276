package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/config"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/feedback"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/console"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/rest"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// App owns the game controller and the optional collaborators subscribed to it.
type App struct {
	logger *slog.Logger

	Game *tictactoe.GameController

	feedback    *feedback.Feedback
	redisClient *redis.Client
	cancelRun   context.CancelFunc
	publisherCh chan struct{}
}

// New builds the controller and wires feedback and broadcasting as configured.
// Audio problems only disable the feedback. A configured but unreachable
// Redis is an error.
func New(ctx context.Context, logger *slog.Logger, conf *config.Config) (*App, error) {
	log := logger.With("component", "app")

	app := &App{
		logger: log,
		Game:   tictactoe.NewGameController(logger),
	}

	if conf.Feedback.Enabled {
		fb, err := newFeedback(logger, conf.Feedback)
		if err != nil {
			log.Warn("audio feedback disabled", "error", err)
		} else {
			app.feedback = fb
			app.Game.Subscribe(fb)
		}
	}

	if conf.Redis.Enabled {
		if err := app.startBroadcast(ctx, logger, conf.Redis); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func newFeedback(logger *slog.Logger, conf config.Feedback) (*feedback.Feedback, error) {
	player, err := feedback.NewCommandPlayer(conf.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid player command: %w", err)
	}

	dir := conf.Dir
	if dir == "" {
		if dir, err = os.MkdirTemp("", "tictactoe-cues-"); err != nil {
			return nil, fmt.Errorf("could not create cue directory: %w", err)
		}
	}

	bank, err := feedback.NewBank(dir, conf.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("could not render cues: %w", err)
	}

	return feedback.New(logger, bank, player, conf.Timeout), nil
}

func (that *App) startBroadcast(ctx context.Context, logger *slog.Logger, conf config.Redis) error {
	redisAddrString := conf.GetRedisAddr()
	if conf.Host == "" || conf.Port == "" {
		return ErrAddrNotFound
	}

	client, err := broadcast.Connect(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis: %w", err)
	}

	publisher := broadcast.NewPublisher(logger, client, conf.Channel, broadcast.DefaultQueueSize)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		publisher.Run(runCtx)
	}()

	that.redisClient = client
	that.cancelRun = cancel
	that.publisherCh = done
	that.Game.Subscribe(publisher)

	that.logger.Info("broadcasting game events", "addr", redisAddrString, "channel", conf.Channel)

	return nil
}

// Close flushes pending events and waits for running audio cues.
func (that *App) Close() {
	if that.cancelRun != nil {
		that.cancelRun()
		<-that.publisherCh
	}

	if that.redisClient != nil {
		if err := that.redisClient.Close(); err != nil {
			that.logger.Error("could not close redis client", "error", err)
		}
	}

	if that.feedback != nil {
		that.feedback.Wait()
	}
}

// RunServer serves the game over HTTP and WebSocket until a signal arrives or a server fails.
func RunServer(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signalContext(log)
	defer cancel()

	app, err := New(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer app.Close()

	wsServer := websocket.New(logger, app.Game)
	app.Game.Subscribe(wsServer)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, app.Game).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// RunConsole plays a hot-seat game on the given terminal streams.
func RunConsole(logger *slog.Logger, conf *config.Config, in io.Reader, out io.Writer) error {
	ctx, cancel := signalContext(logger.With("component", "app"))
	defer cancel()

	app, err := New(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer app.Close()

	if err = console.New(app.Game, in, out).Run(ctx); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}

	return nil
}

func signalContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}
