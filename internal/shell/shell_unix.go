//go:build darwin || linux

package shell

// Command returns the shell and its "run a string" flag for Unix systems.
func Command() (shell string, args []string) {
	return "bash", []string{"-c"}
}

// Name returns a human-readable name for the shell.
func Name() string {
	return "bash"
}
