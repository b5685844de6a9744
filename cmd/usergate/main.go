package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steelcutops/usergate/logger"
	"github.com/steelcutops/usergate/usergate/host"
	"github.com/steelcutops/usergate/usergate/hostgroup"
	"github.com/steelcutops/usergate/usergate/reconcile"
	"github.com/steelcutops/usergate/usergate/settings"
)

// errChanges makes the process exit with status 2 when a plan is not empty.
var errChanges = errors.New("changes pending")

type flags struct {
	Concurrency        int
	Debug              bool
	Hostnames          []string
	IniFilePath        string
	KeyPassPrompt      bool
	LogFileName        string
	PasswordPrompt     bool
	Sudo               bool
	SkipSatisfied      bool
	SudoPasswordPrompt bool
	Username           string
}

// app carries what every subcommand needs once the persistent flags and
// the settings file have been read.
type app struct {
	flags    flags
	settings settings.Settings
	hosts    map[string][]string

	// newHost is replaced in tests.
	newHost func(hostname string, options ...host.HostOption) (*host.Host, error)

	stdout io.Writer
	stderr io.Writer
	// closers run after the command finishes.
	closers []func() error
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	return newApp(stdout, stderr).run(args)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{newHost: host.NewHost, stdout: stdout, stderr: stderr}
}

// run executes the command line and returns the process exit status.
func (a *app) run(args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	for _, closer := range a.closers {
		if cerr := closer(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close")
		}
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errChanges):
		return 2
	default:
		reportError(a.stderr, err)
		return 1
	}
}

func newRootCmd(a *app) *cobra.Command {
	f := &a.flags

	cmd := &cobra.Command{
		Use:           "usergate",
		Short:         "Reconcile users and groups on Linux hosts with a declared configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug log level")
	pf.BoolVar(&f.KeyPassPrompt, "keypass", false, "Prompt for the passphrase decrypting SSH keys")
	pf.BoolVar(&f.PasswordPrompt, "password", false, "Use a password for SSH connection")
	pf.BoolVar(&f.Sudo, "sudo", false, "Run administration commands with sudo")
	pf.BoolVar(&f.SkipSatisfied, "skip-satisfied", false, "Skip users and groups that already exist with the declared name and id instead of reporting a conflict")
	pf.BoolVar(&f.SudoPasswordPrompt, "sudo-password", false, "Prompt for sudo password")
	pf.IntVar(&f.Concurrency, "concurrency", 0, "Maximum number of concurrent host connections")
	pf.StringVar(&f.IniFilePath, "ini", "", "Path to INI file with settings and host groups")
	pf.StringVar(&f.LogFileName, "log", "", "Log file name (default stderr)")
	pf.StringVar(&f.Username, "username", "", "Username to use for SSH connection")
	pf.StringArrayVar(&f.Hostnames, "hostname", nil, "Hostname to connect to (repeatable)")

	cmd.AddCommand(
		newCheckCmd(a),
		newPlanCmd(a),
		newApplyCmd(a),
		newHistoryCmd(a),
	)
	return cmd
}

// setup resolves settings (defaults, INI, environment, then flags) and
// configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	s, hosts, err := settings.Load(a.flags.IniFilePath)
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	if pf.Changed("sudo") {
		s.Sudo = a.flags.Sudo
	}
	if pf.Changed("concurrency") {
		s.Concurrency = a.flags.Concurrency
	}
	if a.flags.Debug {
		s.LogLevel = "debug"
	}
	a.settings = s
	a.hosts = hosts

	opts := logger.Options{Level: s.LogLevel}
	if a.flags.LogFileName != "" {
		file, err := os.OpenFile(a.flags.LogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, file.Close)
		opts.Output = file
	} else {
		opts.Output = a.stderr
	}
	if err := logger.Configure(opts); err != nil {
		return fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}

	logrus.WithField("level", s.LogLevel).Debug("Debug mode enabled")
	return nil
}

// configPath returns the configuration file named on the command line, or
// the one from the settings.
func (a *app) configPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.settings.Config != "" {
		return a.settings.Config, nil
	}
	return "", errors.New("no configuration file given")
}

// initializeHosts builds the host group from the INI host groups and the
// --hostname flags, falling back to localhost.
func (a *app) initializeHosts(options []host.HostOption) (*hostgroup.HostGroup, error) {
	hostGroup := hostgroup.NewHostGroup()

	for group, hosts := range a.hosts {
		logrus.WithField("group", group).Debug("Adding hosts from group")
		if err := a.addHosts(hosts, hostGroup, options...); err != nil {
			return nil, err
		}
	}

	hostnames := a.flags.Hostnames
	if len(hostnames) == 0 && len(a.hosts) == 0 {
		hostnames = []string{"localhost"}
	}
	if err := a.addHosts(hostnames, hostGroup, options...); err != nil {
		return nil, err
	}

	return hostGroup, nil
}

func (a *app) addHosts(hostnames []string, hostGroup *hostgroup.HostGroup, options ...host.HostOption) error {
	for _, hostname := range hostnames {
		if hostGroup.HasHost(hostname) {
			continue
		}
		logrus.WithField("host", hostname).Debug("Adding host")
		server, err := a.newHost(hostname, options...)
		if err != nil {
			return fmt.Errorf("host %s: %w", hostname, err)
		}

		hostGroup.AddHost(server)
	}
	return nil
}

func (a *app) reconcileOptions() []reconcile.Option {
	if a.flags.SkipSatisfied {
		return []reconcile.Option{reconcile.WithSatisfiedAsNoOp()}
	}
	return nil
}
