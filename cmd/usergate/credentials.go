package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/steelcutops/usergate/usergate/host"
)

func prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "Enter the %s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return string(b), nil
}

// buildHostOptions prompts for the secrets requested by flags and turns
// them into host options.
func (a *app) buildHostOptions() ([]host.HostOption, error) {
	f := a.flags
	var options []host.HostOption

	if f.Username != "" {
		options = append(options, host.WithUser(f.Username))
	}

	for _, p := range []struct {
		enabled bool
		label   string
		option  func(string) host.HostOption
	}{
		{f.PasswordPrompt, "password", host.WithPassword},
		{f.KeyPassPrompt, "key passphrase", host.WithKeyPassphrase},
		{f.SudoPasswordPrompt, "sudo password", host.WithSudoPassword},
	} {
		if !p.enabled {
			continue
		}
		secret, err := prompt(p.label)
		if err != nil {
			return nil, err
		}
		if secret != "" {
			options = append(options, p.option(secret))
		}
	}

	options = append(options, host.WithSSHClient(&host.RealSSHClient{}))
	logrus.Debug("SSHClient set in options")
	return options, nil
}
