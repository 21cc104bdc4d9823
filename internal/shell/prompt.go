package shell

import (
	"os/user"
	"path/filepath"
)

// Prompt renders "<user> @ <dir> : $ " where dir is the base name of the
// session directory, "~" at home and "/" at the root. Falls back to "$ "
// when the user cannot be determined.
func (s *Session) Prompt() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "$ "
	}

	dir := s.Dir()
	display := filepath.Base(dir)
	switch {
	case dir == s.home:
		display = "~"
	case dir == string(filepath.Separator):
		display = "/"
	}
	return u.Username + " @ " + display + " : $ "
}
