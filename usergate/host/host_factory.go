package host

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/steelcutops/usergate/usergate/commandmanager"
	"github.com/steelcutops/usergate/usergate/usermanager"
)

// NewHost builds a Host for hostname. Unless WithOS is given the OS is
// detected, and only Linux hosts are accepted: the administration commands
// usergate runs are the shadow-utils ones.
func NewHost(hostname string, options ...HostOption) (*Host, error) {
	h := &Host{Hostname: hostname}

	for _, option := range options {
		option(h)
	}

	if h.CommandManager == nil {
		h.CommandManager = &commandmanager.UnixCommandManager{
			Hostname:    hostname,
			SSHClient:   h.SSHClient,
			Credentials: h.Credentials,
		}
	}

	if h.OSType == "" {
		osType, err := h.DetermineOS(context.TODO())
		if err != nil {
			return nil, err
		}
		h.OSType = osType
	}

	if h.OSType != Linux {
		return nil, fmt.Errorf("unsupported operating system on %s: %s", hostname, h.OSType)
	}

	h.UserManager = &usermanager.LinuxUserManager{CommandManager: h.CommandManager}

	logrus.WithFields(logrus.Fields{
		"host": hostname,
		"os":   h.OSType,
	}).Debug("Configured host")
	return h, nil
}
