package shell

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Complete lists directory entries matching partial, resolved against the
// session directory. The directory part of partial is kept on every match
// so the caller can substitute it directly. An empty partial lists the
// session directory; a missing directory yields nil.
func (s *Session) Complete(partial string) []string {
	dir, prefix := filepath.Split(partial)

	lookup := dir
	if lookup == "" {
		lookup = "."
	}
	entries, err := os.ReadDir(s.resolve(s.expandHome(lookup)))
	if err != nil {
		return nil
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		matches = append(matches, dir+name)
	}
	sort.Strings(matches)
	return matches
}
