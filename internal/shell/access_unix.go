//go:build !windows

package shell

import "golang.org/x/sys/unix"

// canEnter reports whether the process may use dir as its working directory.
func canEnter(dir string) error {
	return unix.Access(dir, unix.X_OK)
}
