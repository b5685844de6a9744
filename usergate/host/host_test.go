package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/steelcutops/usergate/usergate/commandmanager"
)

type MockCommandManager struct {
	Result cm.CommandResult
	Err    error
	Calls  []string
}

func (m *MockCommandManager) RunLocal(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.Run(ctx, config)
}

func (m *MockCommandManager) RunRemote(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.Run(ctx, config)
}

func (m *MockCommandManager) Run(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	m.Calls = append(m.Calls, config.String())
	return m.Result, m.Err
}

func TestNewHostLinux(t *testing.T) {
	mockCmd := &MockCommandManager{Result: cm.CommandResult{STDOUT: "Linux\n"}}

	h, err := NewHost("box", WithCommandManager(mockCmd), WithUser("admin"), WithSudoPassword("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, Linux, h.OSType)
	assert.Equal(t, "admin", h.User)
	assert.Equal(t, "s3cret", h.SudoPassword)
	assert.NotNil(t, h.UserManager)
	assert.Equal(t, []string{"uname -s"}, mockCmd.Calls)
}

func TestNewHostUnsupportedOS(t *testing.T) {
	mockCmd := &MockCommandManager{Result: cm.CommandResult{STDOUT: "Darwin\n"}}

	_, err := NewHost("mac", WithCommandManager(mockCmd))
	assert.ErrorContains(t, err, "unsupported operating system on mac: Darwin")
}

func TestNewHostDetectionError(t *testing.T) {
	mockCmd := &MockCommandManager{Err: errors.New("mock error")}

	_, err := NewHost("box", WithCommandManager(mockCmd))
	assert.ErrorContains(t, err, "mock error")
}

func TestNewHostWithOSSkipsDetection(t *testing.T) {
	mockCmd := &MockCommandManager{}

	h, err := NewHost("box", WithCommandManager(mockCmd), WithOS(Linux))
	require.NoError(t, err)
	assert.Empty(t, mockCmd.Calls)
	assert.Equal(t, "box", h.Hostname)
}

func TestNewHostBuildsCommandManager(t *testing.T) {
	h, err := NewHost("remote", WithOS(Linux), WithPassword("pw"), WithSSHClient(RealSSHClient{}))
	require.NoError(t, err)

	manager, ok := h.CommandManager.(*cm.UnixCommandManager)
	require.True(t, ok)
	assert.Equal(t, "remote", manager.Hostname)
	assert.Equal(t, "pw", manager.Password)
	assert.NotNil(t, manager.SSHClient)
}
