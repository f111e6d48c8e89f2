//go:build windows

package registry

import (
	"fmt"
	"os/exec"
	"strconv"
)

// killTree runs taskkill /F /T, which kills pid and all of its children.
func killTree(pid int) error {
	kill := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid))
	if err := kill.Run(); err != nil {
		return fmt.Errorf("taskkill failed: %w", err)
	}
	return nil
}
