// Package open hands URLs to the desktop's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/podtube-cli/podtube/constant"
)

// Start opens target in the default handler without waiting for it.
func Start(target string) error {
	cmd, err := Command(runtime.GOOS, target)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the command that opens target on goos.
func Command(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", target), nil
	case constant.Darwin:
		return exec.Command("open", target), nil
	case constant.Linux:
		return exec.Command("xdg-open", target), nil
	case constant.Android:
		return exec.Command("termux-open-url", target), nil
	default:
		return nil, fmt.Errorf("opening urls is not supported on %s", goos)
	}
}
