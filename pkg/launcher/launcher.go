// Package launcher validates the target program and hands the process over
// to it. The handoff is a true exec: on success nothing in this tool runs
// afterwards.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// execve is swapped out in tests. The real call does not return on success.
var execve = unix.Exec

// Resolve validates the target program and returns the path to exec. A
// target containing a path separator must exist as a file; a bare name is
// looked up on PATH after checking the working directory.
func Resolve(target string) (string, error) {
	if strings.ContainsRune(target, os.PathSeparator) {
		if isFile(target) {
			return target, nil
		}
		return "", fmt.Errorf("target program not found: %s", target)
	}

	if isFile(target) {
		return target, nil
	}
	path, err := exec.LookPath(target)
	if err != nil {
		return "", fmt.Errorf("target program not found: %s", target)
	}
	return path, nil
}

// Launch replaces the current process image with the target program. It
// only returns when the exec call itself fails.
func Launch(path string, args []string, env []string) error {
	argv := append([]string{path}, args...)
	if err := execve(path, argv, env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

// MergeEnv appends key=value to base unless base already carries the key.
// An empty value leaves base unchanged.
func MergeEnv(base []string, key, value string) []string {
	if value == "" {
		return base
	}
	prefix := key + "="
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			return base
		}
	}
	return append(base, prefix+value)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
