// Package executor turns adjustments into user and group administration
// commands and either records or runs them.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/steelcutops/usergate/logger"
	"github.com/steelcutops/usergate/usergate/adjustment"
	cm "github.com/steelcutops/usergate/usergate/commandmanager"
	"github.com/steelcutops/usergate/usergate/failure"
)

// CommandRunner accepts one command vector and either renders it or runs it
// to completion.
type CommandRunner interface {
	RunCommand(ctx context.Context, argv []string) error
}

// CommandRunnerFunc adapts a function to CommandRunner.
type CommandRunnerFunc func(ctx context.Context, argv []string) error

func (f CommandRunnerFunc) RunCommand(ctx context.Context, argv []string) error {
	return f(ctx, argv)
}

type Executor struct {
	Runner CommandRunner
	Logger logger.Logger
}

// New returns an Executor using runner.
func New(runner CommandRunner) *Executor {
	return &Executor{Runner: runner, Logger: logger.New()}
}

// NewDryRun returns an Executor that writes each command line to w instead
// of running it.
func NewDryRun(w io.Writer) *Executor {
	return New(&Recorder{Writer: w})
}

// NewSystem returns an Executor that runs each command through commands,
// waiting for it to finish before starting the next.
func NewSystem(commands cm.CommandManager, sudo bool) *Executor {
	return New(&SystemRunner{Commands: commands, Sudo: sudo})
}

// Execute applies the adjustments strictly in the given order. Every
// adjustment is rendered before the first command runs, so an adjustment
// that cannot be rendered stops the run with nothing applied. Otherwise it
// stops at the first failure; commands before it have already been applied
// and later ones are not attempted.
func (e *Executor) Execute(ctx context.Context, adjustments []adjustment.Adjustment) error {
	log := e.Logger
	if log == nil {
		log = logger.New()
	}

	vectors, err := Commands(adjustments)
	if err != nil {
		return err
	}

	for i, argv := range vectors {
		a := adjustments[i]
		log.Debug("Executing adjustment",
			"index", i,
			"adjustment", a.String(),
			"command", strings.Join(argv, " "))

		if err := e.Runner.RunCommand(ctx, argv); err != nil {
			log.Error("Adjustment failed",
				"index", i,
				"adjustment", a.String(),
				"remaining", len(adjustments)-i-1,
				"error", err)
			return err
		}
	}
	return nil
}

// Recorder renders each command vector as one space joined line.
type Recorder struct {
	Writer io.Writer
}

func (r *Recorder) RunCommand(_ context.Context, argv []string) error {
	if _, err := fmt.Fprintln(r.Writer, strings.Join(argv, " ")); err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	return nil
}

// SystemRunner runs each command vector through a command manager.
type SystemRunner struct {
	Commands cm.CommandManager
	Sudo     bool
}

func (s *SystemRunner) RunCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}

	command := strings.Join(argv, " ")
	result, err := s.Commands.Run(ctx, cm.CommandConfig{
		Command: argv[0],
		Args:    argv[1:],
		Sudo:    s.Sudo,
	})

	var exitErr *exec.ExitError
	switch {
	case err != nil && !errors.As(err, &exitErr):
		return commandInterrupted(command, err)
	case exitErr != nil && exitErr.ExitCode() < 0:
		return commandInterrupted(command, err)
	case result.ExitCode != 0:
		return commandExited(command, result.ExitCode, result.STDERR)
	case err != nil:
		return commandInterrupted(command, err)
	}
	return nil
}

func commandExited(command string, exitCode int, stderr string) *failure.Error {
	e := failure.New(
		failure.CodeCommandFailed,
		"Command failed.",
		"Command", command,
		"Exit Code", strconv.FormatUint(uint64(uint32(exitCode)), 10),
	)
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		e.Attributes = append(e.Attributes, failure.Attribute{Name: "Error Output", Value: stderr})
	}
	return e
}

func commandInterrupted(command string, cause error) *failure.Error {
	return failure.New(
		failure.CodeCommandFailed,
		"Command failed.",
		"Command", command,
	).WithCause(cause)
}
