package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/chzyer/readline"

	"plantapp/common"
	"plantapp/config"
	"plantapp/console"
	"plantapp/metrics"
	"plantapp/service"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfg := config.Load()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "plantapp> ",
		AutoComplete:    console.NewCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	// Log lines go through readline so they do not garble the prompt.
	if err := common.ConfigureLogging(cfg.LogLevel, cfg.LogFormat, rl.Stderr()); err != nil {
		return err
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	svc, release, err := service.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			log.WithError(err).Warn("Failed to release vision resources")
		}
	}()

	session := console.NewSession(svc, rl.Stdout())
	session.Handle(ctx, "help")
	if len(os.Args) > 1 {
		session.Handle(ctx, "open "+os.Args[1])
	}

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				break
			}
			continue
		}
		if err != nil { // io.EOF
			break
		}
		if !session.Handle(ctx, line) {
			break
		}
	}

	session.Close()
	return nil
}
