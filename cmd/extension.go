package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

const (
	EnvConfig = "BNC_CONFIG"
	EnvRaw    = "BNC_RAW"
)

// RunExtension attempts to find and execute an external bnc-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// Global flags are passed to the extension as environment variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	lp, err := exec.LookPath("bnc-" + subcommand)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvConfig+"="+*configPath,
		EnvRaw+"="+strconv.FormatBool(*rawOutput),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", lp, err)
		return true, 1
	}
	return true, 0
}
