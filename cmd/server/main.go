package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/seventy-zero/ResetRule/config"
	"github.com/seventy-zero/ResetRule/logging"
	"github.com/seventy-zero/ResetRule/network"
	"github.com/seventy-zero/ResetRule/room"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", false)
		boot.Fatal().Err(err).Msg("loading config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, nil); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("stopped")
}

// run serves until ctx is done or the listener fails. ready, if set, is
// called with the bound address once the server accepts connections.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	rooms := room.NewManager(cfg.RoomOptions(), log)
	sweepDone := make(chan struct{})
	go func() {
		rooms.Run(sweepCtx)
		close(sweepDone)
	}()

	srv := network.NewServer(rooms, cfg.ClientOptions(), log)
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()
	log.Info().Str("addr", ln.Addr().String()).Int("max_players", cfg.MaxPlayers).Msg("listening (ws endpoint: /ws)")
	if ready != nil {
		ready(ln.Addr())
	}

	var failed error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			failed = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("closing sessions")
	}
	cancelSweep()
	<-sweepDone
	return failed
}
