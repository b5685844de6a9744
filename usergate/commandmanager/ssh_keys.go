package commandmanager

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// preferredKeys are tried first, in this order, before any other id_* file.
var preferredKeys = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// SSHKeyManager supplies the signers used to authenticate to a host.
type SSHKeyManager interface {
	ReadPrivateKeys(keyPassphrase string) ([]ssh.Signer, error)
}

// FileSSHKeyManager reads private keys from id_* files in Dir.
type FileSSHKeyManager struct {
	// Dir defaults to $HOME/.ssh.
	Dir string
}

func (km FileSSHKeyManager) dir() string {
	if km.Dir != "" {
		return km.Dir
	}
	return filepath.Join(os.Getenv("HOME"), ".ssh")
}

// KeyFiles lists the private key candidates in Dir: the preferred key
// names first, then every other id_* file in lexical order. Public keys and
// non-regular files are skipped.
func (km FileSSHKeyManager) KeyFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(km.dir(), "id_*"))
	if err != nil {
		return nil, err
	}

	rank := func(path string) int {
		base := filepath.Base(path)
		for i, name := range preferredKeys {
			if base == name {
				return i
			}
		}
		return len(preferredKeys)
	}

	files := make([]string, 0, len(matches))
	for _, path := range matches {
		if strings.HasSuffix(path, ".pub") {
			continue
		}
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}

	sort.SliceStable(files, func(i, j int) bool {
		ri, rj := rank(files[i]), rank(files[j])
		if ri != rj {
			return ri < rj
		}
		return files[i] < files[j]
	})
	return files, nil
}

// ReadPrivateKeys parses every candidate key file. Files that cannot be
// parsed are skipped; the call fails only when no key is usable, and the
// error then lists why each file was rejected.
func (km FileSSHKeyManager) ReadPrivateKeys(keyPassphrase string) ([]ssh.Signer, error) {
	files, err := km.KeyFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no SSH private keys found in %s", km.dir())
	}

	var rejected *multierror.Error
	var signers []ssh.Signer
	for _, file := range files {
		signer, err := parseKeyFile(file, keyPassphrase)
		if err != nil {
			rejected = multierror.Append(rejected, fmt.Errorf("%s: %w", filepath.Base(file), err))
			continue
		}
		logrus.WithField("key", file).Debug("Loaded SSH key")
		signers = append(signers, signer)
	}

	if len(signers) == 0 {
		return nil, fmt.Errorf("no usable SSH key in %s: %w", km.dir(), rejected)
	}
	return signers, nil
}

// parseKeyFile parses file, decrypting it with keyPassphrase when one is
// given. Unencrypted keys are accepted either way.
func parseKeyFile(file, keyPassphrase string) (ssh.Signer, error) {
	keyBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return signer, err
	}
	if keyPassphrase == "" {
		return nil, errors.New("key is encrypted and no passphrase was given")
	}
	return ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(keyPassphrase))
}

// AgentSSHKeyManager reads the signers held by a running SSH agent.
type AgentSSHKeyManager struct {
	// Socket defaults to $SSH_AUTH_SOCK.
	Socket string
}

func (km AgentSSHKeyManager) ReadPrivateKeys(_ string) ([]ssh.Signer, error) {
	socket := km.Socket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket == "" {
		return nil, errors.New("SSH_AUTH_SOCK not set")
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("could not connect to SSH agent: %w", err)
	}
	defer conn.Close()

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		return nil, fmt.Errorf("could not get signers from SSH agent: %w", err)
	}
	if len(signers) == 0 {
		return nil, errors.New("no keys found in SSH agent")
	}

	return signers, nil
}

// readKeys returns the signers of the first manager that has any. The
// error reports every manager's failure.
func readKeys(managers []SSHKeyManager, keyPassphrase string) ([]ssh.Signer, error) {
	var result *multierror.Error
	for _, km := range managers {
		signers, err := km.ReadPrivateKeys(keyPassphrase)
		if err == nil {
			return signers, nil
		}
		result = multierror.Append(result, err)
	}
	if result == nil {
		return nil, errors.New("no SSH key source configured")
	}
	return nil, result
}
