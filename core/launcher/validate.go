package launcher

import (
	"os/exec"
	"strings"
)

// splitAppendFlag strips the "+" append marker from a descriptor value.
func splitAppendFlag(fd string) (string, bool) {
	if strings.HasPrefix(fd, "+") {
		return fd[1:], true
	}
	return fd, false
}

func isSpecialFD(fd string) bool {
	return fd == "-" || fd == "=" || fd == "."
}

// commandExists reports whether name resolves to an executable on PATH.
func commandExists(name string) bool {
	if name == "" {
		return false
	}
	p, err := exec.LookPath(name)
	return err == nil && p != ""
}

// validateFDs rejects malformed or unsafe descriptor triples before anything
// is spawned. lookPath is injectable for tests; pass commandExists otherwise.
func validateFDs(fds []string, forceOverwrite bool, lookPath func(string) bool) error {
	if len(fds) < 3 {
		return usageErrorf("requires three arguments: stdin, stdout and stderr")
	}

	// A descriptor that names a program is almost always a missing "--"
	// between the descriptors and the command to execute.
	for _, fd := range fds[1:] {
		name, _ := splitAppendFlag(fd)
		if isSpecialFD(name) {
			continue
		}
		if lookPath(name) {
			return usageErrorf("out/err looks a command: %s\n> (Use `--` to explicitly separate command from out/err)", fd)
		}
	}

	for i := range fds {
		if fds[i] == "+-" || fds[i] == "+=" {
			return usageErrorf("not possible to use `-` or `=` in combination with `+`")
		}
		if isSpecialFD(fds[i]) {
			continue
		}
		namei, _ := splitAppendFlag(fds[i])
		for j := i + 1; j < len(fds); j++ {
			namej, _ := splitAppendFlag(fds[j])
			if namej == namei {
				return usageErrorf("explicitly use `=` when dealing with the same file")
			}
		}
	}

	if forceOverwrite {
		if fds[0] == "-" {
			return usageErrorf("option --force-overwrite requires a real file name")
		}
		if fds[1] != "=" {
			return usageErrorf("option --force-overwrite is only valid when <stdout> is `=`")
		}
	}

	if fds[0] == "=" || fds[0] == "." {
		return usageErrorf("can not specify either `=` or `.` as stdin")
	}

	return nil
}

// normalizeFDs drops the stdout alias when there is nothing to alias to:
// with stdin passthrough, `=` for stdout just means passthrough as well.
func normalizeFDs(fds []string) {
	if fds[0] == "-" && fds[1] == "=" {
		fds[1] = "-"
	}
}
