package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/icon"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/style"
	"github.com/spf13/viper"
)

// checkDependencies exits when the configured mpv binary cannot be found.
func checkDependencies() {
	binary := viper.GetString(key.PlayerMPV)
	if _, err := exec.LookPath(binary); err != nil {
		printMissingDependency(binary)
		os.Exit(1)
	}
}

func installHint(goos string) string {
	switch goos {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	case constant.Android:
		return "pkg install mpv"
	default:
		return ""
	}
}

func printMissingDependency(binary string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.ErrorColor).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.ErrorColor).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("%q was not found in your PATH.", binary))

	var suggestion string
	if hint := installHint(runtime.GOOS); hint != "" {
		suggestion = fmt.Sprintf("\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint))
	}

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, suggestion)))
}
