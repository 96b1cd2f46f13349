package transport

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// localDialer spawns the agent binary as a direct child process. This is
// the "local" transport mode of §6.2, used when the destination host is the
// local machine.
type localDialer struct {
	// agentPath is the path to (or name of, if resolved via PATH) the agent
	// executable.
	agentPath string
}

// Local creates a Dialer that spawns agentPath as a child process and
// connects to its standard input/output. If agentPath is empty, the agent
// binary's conventional name is used and resolved via PATH.
func Local(agentPath string) Dialer {
	if agentPath == "" {
		agentPath = "blocksync-agent"
	}
	return &localDialer{agentPath: agentPath}
}

func (d *localDialer) Dial() (Connection, error) {
	process := exec.Command(d.agentPath)

	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to redirect agent input")
	}
	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to redirect agent output")
	}
	process.Stderr = os.Stderr

	if err := process.Start(); err != nil {
		return nil, errors.Wrap(err, "unable to start agent process")
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
