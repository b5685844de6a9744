package commandmanager

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func ed25519PEM(t *testing.T) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func encryptedRSAPEM(t *testing.T, passphrase string) []byte {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	//nolint:staticcheck // legacy PEM encryption is what ssh-keygen -m PEM writes
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY",
		x509.MarshalPKCS1PrivateKey(priv), []byte(passphrase), x509.PEMCipherAES128)
	require.NoError(t, err)
	return pem.EncodeToMemory(block)
}

func TestKeyFilesOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"id_rsa", "id_custom", "id_ed25519", "id_ed25519.pub", "config", "known_hosts"} {
		writeFile(t, dir, name, []byte("x"))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "id_dir"), 0o700))

	files, err := FileSSHKeyManager{Dir: dir}.KeyFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "id_ed25519"),
		filepath.Join(dir, "id_rsa"),
		filepath.Join(dir, "id_custom"),
	}, files)
}

func TestFileKeysSkipsUnparsable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "id_ed25519", ed25519PEM(t))
	writeFile(t, dir, "id_broken", []byte("not a key"))

	signers, err := FileSSHKeyManager{Dir: dir}.ReadPrivateKeys("")
	require.NoError(t, err)
	assert.Len(t, signers, 1)
}

func TestFileKeysNoneUsable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "id_broken", []byte("not a key"))

	_, err := FileSSHKeyManager{Dir: dir}.ReadPrivateKeys("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable SSH key in "+dir)
	assert.Contains(t, err.Error(), "id_broken")
}

func TestFileKeysEmptyDir(t *testing.T) {
	dir := t.TempDir()

	_, err := FileSSHKeyManager{Dir: dir}.ReadPrivateKeys("")
	assert.EqualError(t, err, "no SSH private keys found in "+dir)
}

func TestFileKeysEncrypted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "id_rsa", encryptedRSAPEM(t, "secret"))
	writeFile(t, dir, "id_ed25519", ed25519PEM(t))
	km := FileSSHKeyManager{Dir: dir}

	signers, err := km.ReadPrivateKeys("secret")
	require.NoError(t, err)
	assert.Len(t, signers, 2)

	signers, err = km.ReadPrivateKeys("")
	require.NoError(t, err)
	assert.Len(t, signers, 1)
}

func TestFileKeysEncryptedWithoutPassphrase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "id_rsa", encryptedRSAPEM(t, "secret"))

	_, err := FileSSHKeyManager{Dir: dir}.ReadPrivateKeys("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no passphrase was given")
}

func serveAgent(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	keyring := agent.NewKeyring()
	require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: priv}))

	socket := filepath.Join(t.TempDir(), "agent.sock")
	listener, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_ = agent.ServeAgent(keyring, conn)
			}()
		}
	}()
	return socket
}

func TestAgentKeys(t *testing.T) {
	signers, err := AgentSSHKeyManager{Socket: serveAgent(t)}.ReadPrivateKeys("")
	require.NoError(t, err)
	require.Len(t, signers, 1)
	assert.Equal(t, ssh.KeyAlgoED25519, signers[0].PublicKey().Type())
}

func TestAgentNotRunning(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	_, err := AgentSSHKeyManager{}.ReadPrivateKeys("")
	assert.EqualError(t, err, "SSH_AUTH_SOCK not set")
}

type staticKeys struct {
	signers []ssh.Signer
	err     error
}

func (s staticKeys) ReadPrivateKeys(string) ([]ssh.Signer, error) {
	return s.signers, s.err
}

func TestReadKeysFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "id_ed25519", ed25519PEM(t))

	signers, err := readKeys([]SSHKeyManager{
		staticKeys{err: errors.New("agent down")},
		FileSSHKeyManager{Dir: dir},
	}, "")
	require.NoError(t, err)
	assert.Len(t, signers, 1)
}

func TestReadKeysReportsEverySource(t *testing.T) {
	_, err := readKeys([]SSHKeyManager{
		staticKeys{err: errors.New("agent down")},
		staticKeys{err: errors.New("no files")},
	}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent down")
	assert.Contains(t, err.Error(), "no files")
}

func TestKeyManagersOrder(t *testing.T) {
	withPassphrase := UnixCommandManager{}
	withPassphrase.KeyPassphrase = "secret"
	assert.IsType(t, FileSSHKeyManager{}, withPassphrase.keyManagers()[0])

	assert.IsType(t, AgentSSHKeyManager{}, (&UnixCommandManager{}).keyManagers()[0])
}
