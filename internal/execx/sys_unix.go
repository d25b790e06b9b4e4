//go:build unix

package execx

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Hide is a no-op on POSIX; there is no console window to suppress.
func Hide(cmd *exec.Cmd) {}

// Detach starts cmd in its own session so it outlives the parent's terminal.
func Detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
}

// Terminate asks p and the rest of its process group to exit gracefully.
// Processes started with Detach lead their own group, so children such as
// model runners receive the signal too.
func Terminate(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

// Kill forcefully ends p and its process group.
func Kill(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

func signalGroup(p *os.Process, sig unix.Signal) error {
	if pgid, err := unix.Getpgid(p.Pid); err == nil && pgid == p.Pid {
		if err := unix.Kill(-pgid, sig); err == nil || err == unix.ESRCH {
			return nil
		}
	}
	return p.Signal(sig)
}
