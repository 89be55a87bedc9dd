package simpleagent

import "strings"

// isDangerous rejects commands the Plan step must never emit, regardless of
// small-model output. Unconditional: no policy or configuration can relax
// this list.
func isDangerous(cmd string) bool {
	trimmed := strings.TrimSpace(cmd)
	lower := strings.ToLower(trimmed)

	if hasSudo(lower) {
		return true
	}
	if isRootWipe(lower) {
		return true
	}
	if strings.Contains(lower, ":(){ :|:& };:") || strings.Contains(lower, "fork bomb") {
		return true
	}
	if strings.HasPrefix(lower, "mkfs") || strings.Contains(lower, " mkfs") {
		return true
	}
	if strings.Contains(lower, "dd ") && strings.Contains(lower, "of=/dev/") {
		return true
	}
	if strings.Contains(lower, "format") && (strings.HasPrefix(lower, "format ") || strings.Contains(lower, " format ")) {
		return true
	}
	if isChmod777Root(lower) {
		return true
	}
	if strings.Contains(lower, "> /dev/sd") || strings.Contains(lower, ">/dev/sd") ||
		strings.Contains(lower, "> /dev/nvme") || strings.Contains(lower, ">/dev/nvme") ||
		strings.Contains(lower, "> /dev/hd") || strings.Contains(lower, ">/dev/hd") {
		return true
	}
	return false
}

func hasSudo(lower string) bool {
	if strings.HasPrefix(lower, "sudo ") || lower == "sudo" {
		return true
	}
	for _, sep := range []string{" | sudo ", "| sudo ", " && sudo ", "&& sudo ", " ; sudo ", "; sudo "} {
		if strings.Contains(lower, sep) {
			return true
		}
	}
	return false
}

func isRootWipe(lower string) bool {
	patterns := []string{"rm -rf /", "rm -fr /", "rm -rf /*", "rm -fr /*", "rm -rf --no-preserve-root /"}
	for _, p := range patterns {
		idx := strings.Index(lower, p)
		if idx < 0 {
			continue
		}
		after := lower[idx+len(p):]
		if p[len(p)-1] == '*' {
			return true
		}
		if after == "" || after[0] == ' ' || after[0] == ';' || after[0] == '&' {
			return true
		}
	}
	return false
}

func isChmod777Root(lower string) bool {
	if !strings.HasPrefix(lower, "chmod ") {
		return false
	}
	fields := strings.Fields(lower)
	for i, f := range fields {
		if f == "777" && i+1 < len(fields) {
			target := fields[i+1]
			if target == "/" || target == "-r" {
				return true
			}
		}
	}
	return strings.Contains(lower, "chmod -r 777 /") || strings.Contains(lower, "chmod 777 /")
}
