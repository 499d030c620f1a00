package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// sshCommand is the remote-execution binary resolved from PATH.
	sshCommand = "ssh"
	// scpCommand is the secure-copy binary resolved from PATH.
	scpCommand = "scp"
)

// errMissingTools indicates one or more required binaries are absent.
var errMissingTools = errors.New("missing required commands")

// EnsureTools verifies that the ssh and scp binaries are available on the
// operator's machine. It is called once at startup so that a missing tool
// is reported before any network activity, never mid-deployment.
func EnsureTools() error {
	var missing []string

	for _, command := range []string{sshCommand, scpCommand} {
		if _, err := exec.LookPath(command); err != nil {
			missing = append(missing, command)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errMissingTools, strings.Join(missing, ", "))
	}

	return nil
}

// Client runs transfers and commands against a single SSH host by invoking
// the external ssh/scp binaries. Both operations block until the spawned
// process exits and fail on any non-zero exit status.
type Client struct {
	// host is the SSH connection string, e.g. root@10.1.87.45.
	host string
	// timeout bounds each external invocation; zero means no bound.
	timeout time.Duration
	// stdout and stderr receive the subprocess output streams.
	stdout io.Writer
	stderr io.Writer
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every ssh/scp invocation with the given duration.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithOutput redirects subprocess stdout and stderr, used by tests.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Client) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// NewClient returns a Client bound to the given SSH host.
func NewClient(host string, opts ...Option) *Client {
	client := &Client{
		host:   host,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Host returns the SSH connection string the client is bound to.
func (c *Client) Host() string {
	return c.host
}

// Upload copies a single local file to the given absolute path on the host.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	destination := c.host + ":" + remotePath

	if err := c.run(ctx, scpCommand, localPath, destination); err != nil {
		return fmt.Errorf("upload %s to %s: %w", localPath, destination, err)
	}

	return nil
}

// Execute runs a shell command string on the host. Fail-fast semantics
// within the command are the caller's responsibility (the script must start
// with `set -euo pipefail` so a failing sub-step aborts the remainder).
func (c *Client) Execute(ctx context.Context, command string) error {
	if err := c.run(ctx, sshCommand, c.host, command); err != nil {
		return fmt.Errorf("remote command on %s: %w", c.host, err)
	}

	return nil
}

// run spawns one external command, streaming its output, and waits for it.
func (c *Client) run(ctx context.Context, name string, args ...string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}
