package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// variables never taken over from the gateway's own environment
var forbiddenEnvInherits = map[string]bool{
	"AUTH_TYPE":         true,
	"CONTENT_LENGTH":    true,
	"CONTENT_TYPE":      true,
	"GATEWAY_INTERFACE": true,
	"PATH_INFO":         true,
	"PATH_TRANSLATED":   true,
	"QUERY_STRING":      true,
	"REMOTE_ADDR":       true,
	"REMOTE_HOST":       true,
	"REMOTE_IDENT":      true,
	"REMOTE_USER":       true,
	"REQUEST_METHOD":    true,
	"REQUEST_URI":       true,
	"SCRIPT_NAME":       true,
	"SERVER_NAME":       true,
	"SERVER_PORT":       true,
	"SERVER_PROTOCOL":   true,
	"SERVER_SOFTWARE":   true,

	"LD_PRELOAD":       true,
	"LD_LIBRARY_PATH":  true,
	"LD_AUDIT":         true,
	"LD_DEBUG":         true,
	"LD_DYNAMIC_WEAK":  true,
	"LD_BIND_NOW":      true,
	"LD_ORIGIN_PATH":   true,
	"LD_ASSUME_KERNEL": true,
	"LD_CONFIG_FILE":   true,
}

func allowedEnvInherit(kv string) bool {
	k, _, _ := strings.Cut(kv, "=")

	if strings.HasPrefix(k, "HTTP_") {
		return false
	}

	return !forbiddenEnvInherits[k]
}

// inheritedEnv filters environ down to the entries a CGI program may inherit
func inheritedEnv(environ []string) []string {
	ret := make([]string, 0, len(environ))
	for _, e := range environ {
		if allowedEnvInherit(e) {
			ret = append(ret, e)
		}
	}
	return ret
}

// resolveProgram turns the program argument into a path. Bare names are
// looked up in PATH.
func resolveProgram(program string) (string, error) {
	if program == "" {
		return "", fmt.Errorf("no CGI program given")
	}
	if !strings.ContainsRune(program, filepath.Separator) {
		p, err := exec.LookPath(program)
		if err != nil {
			return "", fmt.Errorf("program not found: %w", err)
		}
		program = p
	}
	return filepath.Abs(program)
}

// validateProgram ensures the program is an executable regular file and, when
// root is set, lies under root without going through a symlink
func validateProgram(program string, root string) error {
	if !filepath.IsAbs(program) {
		return fmt.Errorf("program path must be absolute: %s", program)
	}

	// Clean up the path (removes "."/".." components)
	program = filepath.Clean(program)

	stat := os.Stat
	if root != "" {
		rel, err := filepath.Rel(root, program)
		if err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("program path (%s) outside root (%s)", program, root)
		}
		// a symlink could point anywhere, so do not follow it
		stat = os.Lstat
	}

	info, err := stat(program)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("program not found: %w", err)
		}
		return fmt.Errorf("failed to stat program: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("Symlinks are unsupported below root %s", program)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("program is not a regular file: %s", program)
	}
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("program not executable: %s", program)
	}

	slog.Debug("program validated", "program", program)
	return nil
}

// launchConfig is what the process launcher needs besides the request
type launchConfig struct {
	Program string
	Args    []string
	Root    string
	Inherit []string
}

// prepareCGICommand constructs an *exec.Cmd running the configured program
// with the request's CGI environment
func prepareCGICommand(ctx context.Context, lc launchConfig, env Environ) (*exec.Cmd, error) {
	program, err := resolveProgram(lc.Program)
	if err != nil {
		return nil, err
	}
	if err := validateProgram(program, lc.Root); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, program, lc.Args...)
	cmd.Env = append(inheritedEnv(lc.Inherit), env.Pairs()...)

	return cmd, nil
}
