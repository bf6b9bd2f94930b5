package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/timzifer/regmapgen/devices/builtin"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	if err != nil {
		log.Logger.Error().Err(err).Msg("regmapgen failed")
	}
	a.close()
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
