package shell

import (
	"fmt"
	"slices"
	"strings"
)

// TuiApps is the fixed allow-list of full-screen programs that need a PTY.
var TuiApps = []string{"nano", "vi", "vim", "micro", "top", "htop", "less", "man"}

// IsTuiApp reports whether name (case-insensitive) is in TuiApps.
func IsTuiApp(name string) bool {
	return slices.Contains(TuiApps, strings.ToLower(name))
}

// IntentKind is what the classifier decided a line should do.
type IntentKind int

const (
	IntentEmpty IntentKind = iota
	IntentChangeDir
	IntentTui
	IntentExternal
)

// String returns a short label for the intent.
func (k IntentKind) String() string {
	switch k {
	case IntentEmpty:
		return "empty"
	case IntentChangeDir:
		return "cd"
	case IntentTui:
		return "tui"
	case IntentExternal:
		return "external"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// RedirectMode selects how redirected stdout reaches the target file.
type RedirectMode string

const (
	RedirectOverwrite RedirectMode = "overwrite"
	RedirectAppend    RedirectMode = "append"
)

// Redirect is a trailing "> file" or ">> file".
type Redirect struct {
	Target string
	Mode   RedirectMode
}

// Intent is a classified input line.
type Intent struct {
	Kind IntentKind

	// Name is the lower-cased first token.
	Name string

	// Command is the text handed to the interpreter (external) or split into
	// argv (tui). For cd it is empty.
	Command string

	// Dir is the cd argument; empty means the home directory.
	Dir string

	// Redirect is set for external commands with a redirect operator.
	Redirect *Redirect
}

// Classify parses a single line into an Intent.
//
// Only standalone ">" and ">>" tokens are recognised. The first operator
// scanning left to right wins; the token after it is the target and any
// tokens after the target stay on the command line as literal arguments.
func Classify(line string) (Intent, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Intent{Kind: IntentEmpty}, nil
	}

	name := strings.ToLower(parts[0])

	if name == "cd" {
		in := Intent{Kind: IntentChangeDir, Name: name}
		if len(parts) > 1 {
			in.Dir = parts[1]
		}
		return in, nil
	}

	if IsTuiApp(name) {
		return Intent{Kind: IntentTui, Name: name, Command: strings.TrimSpace(line)}, nil
	}

	for i, p := range parts {
		var mode RedirectMode
		switch p {
		case ">":
			mode = RedirectOverwrite
		case ">>":
			mode = RedirectAppend
		default:
			continue
		}
		if i+1 >= len(parts) {
			return Intent{}, ErrMissingRedirectTarget
		}
		args := append(slices.Clone(parts[:i]), parts[i+2:]...)
		return Intent{
			Kind:     IntentExternal,
			Name:     name,
			Command:  strings.Join(args, " "),
			Redirect: &Redirect{Target: parts[i+1], Mode: mode},
		}, nil
	}

	return Intent{Kind: IntentExternal, Name: name, Command: strings.TrimSpace(line)}, nil
}
