package registry

// Killer forcefully terminates an OS process and its children.
type Killer interface {
	Kill(pid int) error
}

// KillerFunc adapts a function to Killer.
type KillerFunc func(pid int) error

func (f KillerFunc) Kill(pid int) error {
	return f(pid)
}

// TreeKiller kills a process together with every descendant. Errors from
// processes that are already gone are ignored.
type TreeKiller struct{}

func (TreeKiller) Kill(pid int) error {
	if pid <= 0 {
		return nil
	}
	return killTree(pid)
}
