package wifi

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandRunner abstracts the network manager CLI so tests can fake it.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// Run implements CommandRunner with os/exec. The process is killed when ctx
// is done.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
