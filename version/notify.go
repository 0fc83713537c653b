package version

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/podtube-cli/podtube/color"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/style"
	"github.com/spf13/viper"
)

// Notify prints a notice to w when a newer release is available and cli.version_check is on.
func Notify(w io.Writer) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	latest, ok := Outdated(ctx)
	if !ok {
		return
	}

	fmt.Fprintf(w, "\n%s New version is available %s %s\n%s\n\n",
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/"+constant.Repository+"/releases/tag/v"+latest),
	)
}
