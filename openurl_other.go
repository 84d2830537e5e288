//go:build !windows

package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openURL hands target (a URL or a folder) to the desktop's default handler.
func openURL(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", target)
	default:
		return fmt.Errorf("opening %s: unsupported OS %s", target, runtime.GOOS)
	}
	return cmd.Start()
}
