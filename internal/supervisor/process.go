package supervisor

import (
	"os/exec"
	"sync"

	"locallm/internal/execx"
)

// Process is a handle on an engine process this supervisor spawned and owns.
type Process struct {
	cmd    *exec.Cmd
	output *execx.TailBuffer

	done    chan struct{}
	mu      sync.Mutex
	waitErr error
}

// newProcess wraps a started command and reaps it in the background.
func newProcess(cmd *exec.Cmd, output *execx.TailBuffer) *Process {
	p := &Process{cmd: cmd, output: output, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p
}

// PID returns the OS process id.
func (p *Process) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Exited reports whether the process has terminated.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the wait error once the process has exited.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

// Output returns the tail of the process's combined output.
func (p *Process) Output() string {
	if p.output == nil {
		return ""
	}
	return p.output.String()
}
