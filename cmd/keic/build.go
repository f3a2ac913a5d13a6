package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// probeHostCompiler returns the path of the first compiler in order that is
// found on PATH, matching spec.md §4.8 ("cc, gcc, clang in order").
func probeHostCompiler(order []string) (string, error) {
	for _, name := range order {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no host C compiler found (tried %v)", order)
}

// compile invokes ccBin on cPath, producing outStem (no extension; the host
// compiler's own convention decides whether that means outStem or outStem.exe).
func compile(ccBin, cPath, outStem string) error {
	cmd := exec.Command(ccBin, "-o", outStem, cPath, "-lm")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("host compiler failed: %w", err)
	}
	return nil
}

// runBinary executes the freshly built binary, propagating its exit code as
// the driver's own (spec.md §6: "the process's own exit code is replaced by
// the child program's exit code when --run is passed").
func runBinary(outStem string) int {
	bin := outStem
	if filepath.Base(bin) == bin {
		bin = "./" + bin
	}
	cmd := exec.Command(bin)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		reportError("running %s: %v", bin, err)
		return 1
	}
	return 0
}
