package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ChangeDirectory moves the session to path ("" means home) and returns the
// canonical absolute directory. On failure the session directory is left
// untouched.
func (s *Session) ChangeDirectory(path string) (string, error) {
	target := s.expandHome(path)
	abs := s.resolve(target)

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrDirectoryChangeFailed, path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s: not a directory", ErrDirectoryChangeFailed, path)
	}
	if err := canEnter(abs); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirectoryChangeFailed, path, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirectoryChangeFailed, path, err)
	}

	s.mu.Lock()
	s.dir = canonical
	s.mu.Unlock()

	s.logger.Debug("shell: directory changed", "dir", canonical)
	return canonical, nil
}

// expandHome maps "", "~" and "~/x" onto the home directory.
func (s *Session) expandHome(path string) string {
	switch {
	case path == "" || path == "~":
		return s.home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(s.home, path[2:])
	default:
		return path
	}
}
