package shell

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// writeRedirect writes data to path under an advisory lock so that two
// sessions appending to the same file do not interleave.
func writeRedirect(path string, mode RedirectMode, data []byte) error {
	flags := os.O_WRONLY | os.O_CREATE
	if mode == RedirectAppend {
		flags |= os.O_APPEND
	}

	// Create the file with our permissions before flock opens it.
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer fl.Unlock()

	if mode == RedirectOverwrite {
		if err := f.Truncate(0); err != nil {
			return err
		}
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
