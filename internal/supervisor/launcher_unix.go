//go:build unix

package supervisor

import (
	"os/exec"

	"locallm/internal/execx"
)

func detachedCommand(bin string) *exec.Cmd {
	cmd := exec.Command("nohup", bin, "serve")
	execx.Detach(cmd)
	return cmd
}
