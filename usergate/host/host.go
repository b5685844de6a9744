package host

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/steelcutops/usergate/common"
	"github.com/steelcutops/usergate/usergate/commandmanager"
	"github.com/steelcutops/usergate/usergate/usermanager"
)

type OSType string

const (
	Linux   OSType = "Linux"
	Darwin  OSType = "Darwin"
	Unknown OSType = "Unknown"
)

// Host is one machine whose users and groups are managed.
type Host struct {
	Hostname  string
	OSType    OSType
	SSHClient commandmanager.SSHDialer
	common.Credentials

	CommandManager commandmanager.CommandManager
	UserManager    usermanager.UserManager
}

// DetermineOS asks the host for its kernel name.
func (h *Host) DetermineOS(ctx context.Context) (OSType, error) {
	result, err := h.CommandManager.Run(ctx, commandmanager.CommandConfig{
		Command: "uname",
		Args:    []string{"-s"},
	})
	if err != nil {
		return Unknown, fmt.Errorf("determine OS of %s: %w", h.Hostname, err)
	}

	switch strings.TrimSpace(result.STDOUT) {
	case "Linux":
		return Linux, nil
	case "Darwin":
		return Darwin, nil
	default:
		return Unknown, nil
	}
}

// RealSSHClient dials with golang.org/x/crypto/ssh.
type RealSSHClient struct{}

func (RealSSHClient) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}
