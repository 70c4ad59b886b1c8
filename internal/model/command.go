package model

import "strings"

// Command is one wrapped invocation. Argv holds the program and its
// arguments exactly as given after the -- separator. With Shell set the
// whole line is joined and handed to `bash -c` instead of being executed
// directly.
type Command struct {
	Argv  []string
	Shell bool
}

// CLI returns the full command line as a single string. It is the input of
// the fingerprint digest and the command text shown in reports.
func (c Command) CLI() string {
	return strings.Join(c.Argv, " ")
}

// Program returns the word naming this command on disk: the program path in
// argv mode, the first whitespace-delimited token in shell mode.
func (c Command) Program() string {
	if len(c.Argv) == 0 {
		return ""
	}
	if c.Shell {
		fields := strings.Fields(c.CLI())
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	}
	return c.Argv[0]
}
