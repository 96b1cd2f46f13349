package transport

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

const (
	// sshConnectTimeoutSeconds bounds the time SSH will spend establishing
	// the connection itself; it has no bearing on the lifetime of the
	// transfer once connected.
	sshConnectTimeoutSeconds = 5
)

// sshDialer spawns an interactive SSH client pointed at a remote shell
// invocation of the agent binary. This is the "remote" transport mode of
// §6.2; the shell session is expected to provide a clean 8-bit binary
// channel in both directions.
type sshDialer struct {
	user          string
	host          string
	agentCommand  string
}

// SSH creates a Dialer that connects to host (optionally as user, if
// non-empty) via the local "ssh" client and invokes agentCommand in the
// remote shell.
func SSH(user, host, agentCommand string) Dialer {
	return &sshDialer{user: user, host: host, agentCommand: agentCommand}
}

func (d *sshDialer) Dial() (Connection, error) {
	target := d.host
	if d.user != "" {
		target = fmt.Sprintf("%s@%s", d.user, d.host)
	}

	arguments := []string{
		fmt.Sprintf("-oConnectTimeout=%d", sshConnectTimeoutSeconds),
		"--",
		target,
		d.agentCommand,
	}
	process := exec.Command("ssh", arguments...)

	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to redirect SSH input")
	}
	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to redirect SSH output")
	}
	process.Stderr = os.Stderr

	if err := process.Start(); err != nil {
		return nil, errors.Wrap(err, "unable to start SSH process")
	}

	closeWrite := func() error {
		return stdin.Close()
	}
	closeAll := func() error {
		stdin.Close()
		return process.Wait()
	}

	return NewCounting(stdout, stdin, closeWrite, closeAll), nil
}
