//go:build windows

package supervisor

import (
	"fmt"
	"os/exec"

	"locallm/internal/execx"
)

func detachedCommand(bin string) *exec.Cmd {
	script := fmt.Sprintf(`Start-Process "%s" -ArgumentList serve -WindowStyle Hidden`, bin)
	cmd := exec.Command("powershell", "-WindowStyle", "Hidden", "-Command", script)
	execx.Hide(cmd)
	return cmd
}
