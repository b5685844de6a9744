package commandmanager

import (
	"context"
	"strings"
	"time"
)

// CommandConfig describes one command invocation. Command and Args form the
// argument vector; no shell interprets them.
type CommandConfig struct {
	Command string
	Args    []string
	Sudo    bool
}

// Argv returns the full argument vector.
func (c CommandConfig) Argv() []string {
	return append([]string{c.Command}, c.Args...)
}

// String joins the argument vector with single spaces.
func (c CommandConfig) String() string {
	return strings.Join(c.Argv(), " ")
}

// CommandResult encapsulates the results from a command execution.
type CommandResult struct {
	Command   string
	STDOUT    string
	STDERR    string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// CommandManager provides methods to execute commands, both locally and remotely.
type CommandManager interface {
	// Run executes a command on the managed host, choosing local or remote
	// execution from the hostname.
	Run(ctx context.Context, config CommandConfig) (CommandResult, error)

	// RunLocal executes a command on the local system.
	RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error)

	// RunRemote executes a command on a remote system via SSH.
	RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error)
}
