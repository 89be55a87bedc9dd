//go:build windows

package shell

// Command returns the shell and its "run a string" flag for Windows.
func Command() (shell string, args []string) {
	return "cmd.exe", []string{"/C"}
}

// Name returns a human-readable name for the shell.
func Name() string {
	return "cmd.exe"
}
