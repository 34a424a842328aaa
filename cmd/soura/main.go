package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"soura-masreya/internal/config"
	"soura-masreya/internal/scene"
)

const usage = `soura: Egyptian lifestyle photo studio

Usage:
  soura scene    [-persona P] [-shot S] [-seed N] [-n COUNT]
  soura generate -ref PATH [-prompt TEXT] [-persona P] [-shot S] [-aspect R] [-aesthetic A] [-out DIR] [-n COUNT]
  soura history  list | show ID | export [-effect E] ID [PATH] | clear
  soura corpus   validate [PATH] | schema | stats
  soura env

Personas: random, man, woman, woman_hijabi, child_boy, child_girl
Shots:    random, close-up, medium, full-body, environmental
`

// app carries what every subcommand needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"scene":    runScene,
	"generate": runGenerate,
	"history":  runHistory,
	"corpus":   runCorpus,
	"env":      runEnv,
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg, os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		if os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
			fmt.Fprint(os.Stdout, usage)
			return
		}
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger, stdout: os.Stdout}
	if err := cmd(ctx, a, os.Args[2:]); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted")
		} else {
			logger.Error(os.Args[1]+" failed", "err", err)
		}
		stop()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		}))
	}

	return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(level),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	}))
}

// loadScenes builds the generator from SOURA_CORPUS_PATH or the embedded corpus.
func (a *app) loadScenes() (*scene.Generator, error) {
	if a.cfg.CorpusPath == "" {
		return scene.Default()
	}

	c, err := scene.LoadCorpusFile(a.cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using corpus file", "path", a.cfg.CorpusPath)
	return scene.New(c)
}

// selectors parses persona and shot tokens, warning about unknown ones.
func (a *app) selectors(personaToken, shotToken string) (scene.Persona, scene.ShotType) {
	if !scene.KnownPersona(personaToken) {
		a.logger.Warn("unknown persona, picking one at random", "persona", personaToken)
	}
	if !scene.KnownShotType(shotToken) {
		a.logger.Warn("unknown shot type, picking one at random", "shot", shotToken)
	}
	return scene.ParsePersona(personaToken), scene.ParseShotType(shotToken)
}
