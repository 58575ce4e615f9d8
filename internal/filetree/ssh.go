package filetree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// CommandRunner runs a shell command on the webroot's host and returns its
// standard output.
type CommandRunner interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// CommandRunnerFunc adapts a function to CommandRunner.
type CommandRunnerFunc func(ctx context.Context, command string) ([]byte, error)

// Run calls f.
func (f CommandRunnerFunc) Run(ctx context.Context, command string) ([]byte, error) {
	return f(ctx, command)
}

// DefaultSSHPort is used when the host carries no port.
const DefaultSSHPort = "22"

// DefaultDialTimeout bounds establishing the SSH connection.
const DefaultDialTimeout = 15 * time.Second

// SSHRunner runs commands over an SSH connection. Authentication uses the
// running ssh-agent and the default private keys in ~/.ssh; host keys are
// checked against ~/.ssh/known_hosts.
type SSHRunner struct {
	location       Location
	keyFiles       []string
	knownHostsFile string
	dialTimeout    time.Duration
	hostKeyCheck   ssh.HostKeyCallback
}

// SSHOption configures an SSHRunner.
type SSHOption func(*SSHRunner)

// WithKeyFiles replaces the private key files tried for authentication.
func WithKeyFiles(paths ...string) SSHOption {
	return func(r *SSHRunner) {
		r.keyFiles = paths
	}
}

// WithKnownHostsFile replaces ~/.ssh/known_hosts.
func WithKnownHostsFile(path string) SSHOption {
	return func(r *SSHRunner) {
		r.knownHostsFile = path
	}
}

// WithHostKeyCallback replaces known_hosts verification.
func WithHostKeyCallback(cb ssh.HostKeyCallback) SSHOption {
	return func(r *SSHRunner) {
		r.hostKeyCheck = cb
	}
}

// WithDialTimeout sets the connection timeout.
func WithDialTimeout(d time.Duration) SSHOption {
	return func(r *SSHRunner) {
		if d > 0 {
			r.dialTimeout = d
		}
	}
}

// NewSSHRunner returns a runner for loc's host.
func NewSSHRunner(loc Location, opts ...SSHOption) *SSHRunner {
	r := &SSHRunner{
		location:    loc,
		dialTimeout: DefaultDialTimeout,
	}
	if home, err := os.UserHomeDir(); err == nil {
		sshDir := filepath.Join(home, ".ssh")
		r.knownHostsFile = filepath.Join(sshDir, "known_hosts")
		r.keyFiles = []string{
			filepath.Join(sshDir, "id_ed25519"),
			filepath.Join(sshDir, "id_ecdsa"),
			filepath.Join(sshDir, "id_rsa"),
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run connects, runs command in a new session and disconnects.
func (r *SSHRunner) Run(ctx context.Context, command string) ([]byte, error) {
	cfg, closeAgent, err := r.clientConfig()
	if err != nil {
		return nil, err
	}
	defer closeAgent()

	addr := r.address()
	dialer := &net.Dialer{Timeout: r.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		_ = client.Close()
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				return nil, fmt.Errorf("%w: exit status %d: %s", ErrRemoteCommand,
					exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
			}
			return nil, fmt.Errorf("%w: %w", ErrRemoteCommand, err)
		}
	}
	return stdout.Bytes(), nil
}

func (r *SSHRunner) address() string {
	if _, _, err := net.SplitHostPort(r.location.Host); err == nil {
		return r.location.Host
	}
	return net.JoinHostPort(r.location.Host, DefaultSSHPort)
}

func (r *SSHRunner) clientConfig() (*ssh.ClientConfig, func(), error) {
	closeAgent := func() {}

	hostKeyCheck := r.hostKeyCheck
	if hostKeyCheck == nil {
		cb, err := knownhosts.New(r.knownHostsFile)
		if err != nil {
			return nil, closeAgent, fmt.Errorf("failed to load known hosts %s: %w", r.knownHostsFile, err)
		}
		hostKeyCheck = cb
	}

	var auths []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			auths = append(auths, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			closeAgent = func() { _ = conn.Close() }
		}
	}
	var signers []ssh.Signer
	for _, path := range r.keyFiles {
		data, err := os.ReadFile(path) //nolint:gosec // key paths come from the user's ssh directory
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		auths = append(auths, ssh.PublicKeys(signers...))
	}

	return &ssh.ClientConfig{
		User:            r.userName(),
		Auth:            auths,
		HostKeyCallback: hostKeyCheck,
		Timeout:         r.dialTimeout,
	}, closeAgent, nil
}

func (r *SSHRunner) userName() string {
	if r.location.User != "" {
		return r.location.User
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
