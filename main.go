package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run holds the program logic so tests can drive it without exiting.
func run(outW, errW io.Writer, args []string) error {
	cfg, shouldExit, err := ParseConfig(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger, err := newLogger(errW, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg.TUI {
		// the alt screen owns the terminal; stderr logs would tear it
		logger.SetOutput(io.Discard)
	}
	logger.Debug("config resolved", "qubits", cfg.Qubits, "swaps", cfg.Swaps, "workers", cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend := NewStatevectorBackend(logger, cfg.Workers, cfg.MaxQubits)
	defer backend.Close()

	if cfg.TUI {
		p := tea.NewProgram(initialModel(ctx, backend, logger, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err
	}

	return NewRunner(outW, logger, backend).Run(ctx, cfg)
}
