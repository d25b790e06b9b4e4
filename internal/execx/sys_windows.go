//go:build windows

package execx

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// Hide suppresses the console window of cmd.
func Hide(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NO_WINDOW
}

// Detach starts cmd without a console window in a new process group.
func Detach(cmd *exec.Cmd) {
	Hide(cmd)
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP
}

// Terminate asks p and its child processes to exit through taskkill without
// /F; Windows has no SIGTERM.
func Terminate(p *os.Process) error {
	return taskkill(p, "/T")
}

// Kill forcefully ends p and its child processes.
func Kill(p *os.Process) error {
	if err := taskkill(p, "/T", "/F"); err != nil {
		return p.Kill()
	}
	return nil
}

func taskkill(p *os.Process, flags ...string) error {
	cmd := exec.Command("taskkill", append(flags, "/PID", strconv.Itoa(p.Pid))...)
	Hide(cmd)
	return cmd.Run()
}
