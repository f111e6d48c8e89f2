//go:build !windows

package registry

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// killTree sends SIGKILL to the process group led by pid, to every
// descendant reported by ps, and finally to pid itself.
func killTree(pid int) error {
	// Collect before killing; children get reparented once pid dies.
	children := descendants(pid)

	_ = unix.Kill(-pid, unix.SIGKILL)
	for _, child := range children {
		_ = unix.Kill(child, unix.SIGKILL)
	}

	err := unix.Kill(pid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}

// descendants walks the ps process table breadth first from root.
func descendants(root int) []int {
	out, err := exec.Command("ps", "-A", "-o", "pid=,ppid=").Output()
	if err != nil {
		debugLog.Debugf("ps failed, killing %d without descendants: %v", root, err)
		return nil
	}
	return parseDescendants(out, root)
}

func parseDescendants(table []byte, root int) []int {
	children := make(map[int][]int)
	scanner := bufio.NewScanner(bytes.NewReader(table))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		pid, err1 := strconv.Atoi(fields[0])
		ppid, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || pid == ppid {
			continue
		}
		children[ppid] = append(children[ppid], pid)
	}

	var found []int
	seen := map[int]bool{root: true}
	queue := []int{root}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, c := range children[p] {
			if seen[c] {
				continue
			}
			seen[c] = true
			found = append(found, c)
			queue = append(queue, c)
		}
	}
	return found
}
