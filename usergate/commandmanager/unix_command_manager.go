package commandmanager

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/steelcutops/usergate/common"
)

type SSHDialer interface {
	Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error)
}

type UnixCommandManager struct {
	Hostname  string
	SSHClient SSHDialer
	common.Credentials
}

func (u *UnixCommandManager) RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	if config.Sudo {
		cmdArgs := append([]string{"sudo", "-S", "-p", "", config.Command}, config.Args...)
		cmd = exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)

		cmd.Stdin = strings.NewReader(u.SudoPassword + "\n")
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logrus.WithFields(logrus.Fields{
		"hostname": u.Hostname,
		"command":  config.String(),
		"sudo":     config.Sudo,
	}).Debug("Executing local command")

	err := cmd.Run()

	result := CommandResult{
		Command:   config.String(),
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		ExitCode:  getExitCode(err),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if sudoErr := checkSudo(config, result); sudoErr != nil {
		return result, sudoErr
	}
	return result, err
}

// keyManagers lists the key sources in the order they are tried. With a
// passphrase the key files come first, since the passphrase is for them.
func (u *UnixCommandManager) keyManagers() []SSHKeyManager {
	if u.KeyPassphrase != "" {
		return []SSHKeyManager{FileSSHKeyManager{}, AgentSSHKeyManager{}}
	}
	return []SSHKeyManager{AgentSSHKeyManager{}, FileSSHKeyManager{}}
}

func (u *UnixCommandManager) getSSHConfig() (*ssh.ClientConfig, error) {
	var authMethod ssh.AuthMethod

	if u.Password != "" {
		logrus.WithField("hostname", u.Hostname).Debug("Using password authentication")
		authMethod = ssh.Password(u.Password)
	} else {
		logrus.WithField("hostname", u.Hostname).Debug("Using public key authentication")
		keys, err := readKeys(u.keyManagers(), u.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("public key authentication to %s: %w", u.Hostname, err)
		}

		authMethod = ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			return keys, nil
		})
	}

	return &ssh.ClientConfig{
		User:            u.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

func (u *UnixCommandManager) RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error) {
	logrus.WithFields(logrus.Fields{
		"hostname": u.Hostname,
		"command":  config.String(),
		"sudo":     config.Sudo,
	}).Debug("Executing remote command")

	if u.SSHClient == nil {
		return CommandResult{}, errors.New("SSHClient is not initialized")
	}

	sshConfig, err := u.getSSHConfig()
	if err != nil {
		return CommandResult{}, err
	}
	var dialTimeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(deadline)
	} else {
		dialTimeout = 15 * time.Minute
	}

	client, err := u.SSHClient.Dial("tcp", u.Hostname+":22", sshConfig, dialTimeout)
	if err != nil {
		return CommandResult{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return CommandResult{}, err
	}
	defer session.Close()

	cmdStr := remoteCommand(config)
	if config.Sudo {
		session.Stdin = strings.NewReader(u.SudoPassword + "\n")
	}

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmdStr)
	}()

	select {
	case runErr := <-done:
		result := CommandResult{
			Command:   config.String(),
			STDOUT:    stdout.String(),
			STDERR:    stderr.String(),
			ExitCode:  getExitCode(runErr),
			Duration:  time.Since(start),
			Timestamp: start,
		}

		var exitErr *ssh.ExitError
		if runErr != nil && !errors.As(runErr, &exitErr) {
			logrus.WithFields(logrus.Fields{
				"command": cmdStr,
				"error":   runErr,
			}).Error("Failed to execute command over SSH")
			return result, runErr
		}

		if sudoErr := checkSudo(config, result); sudoErr != nil {
			return result, sudoErr
		}
		return result, nil

	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		logrus.WithField("command", cmdStr).Error("Command over SSH interrupted")
		return CommandResult{Command: config.String()}, ctx.Err()
	}
}

func (u *UnixCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.isLocal() {
		return u.RunLocal(ctx, config)
	}
	return u.RunRemote(ctx, config)
}

func (u *UnixCommandManager) isLocal() bool {
	return u.Hostname == "" || u.Hostname == "localhost" || u.Hostname == "127.0.0.1"
}

func checkSudo(config CommandConfig, result CommandResult) error {
	if !config.Sudo {
		return nil
	}
	output := result.STDOUT + result.STDERR
	if strings.Contains(output, "incorrect password") {
		return errors.New("sudo: incorrect password provided")
	}
	if strings.Contains(output, "is not in the sudoers file") {
		return errors.New("sudo: user is not in the sudoers file")
	}
	return nil
}

func getExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var sshExitErr *ssh.ExitError
	if errors.As(err, &sshExitErr) {
		return sshExitErr.ExitStatus()
	}
	return 0
}

// remoteCommand renders config as one line for the remote login shell.
func remoteCommand(config CommandConfig) string {
	argv := config.Argv()
	if config.Sudo {
		argv = append([]string{"sudo", "-S", "-p", ""}, argv...)
	}
	return shellescape.QuoteCommand(argv)
}
