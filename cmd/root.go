// Package cmd implements the podtube command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/podtube-cli/podtube/color"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/icon"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/style"
	"github.com/podtube-cli/podtube/tui"
	"github.com/podtube-cli/podtube/util"
	"github.com/podtube-cli/podtube/version"
	"github.com/podtube-cli/podtube/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Record playback positions to resume later")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnPlay, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.Flags().BoolP("continue", "c", false, "Continue the last played item")
	rootCmd.Flags().BoolP("expanded", "e", false, "Start with the player expanded")
	lo.Must0(viper.BindPFlag(key.TUIStartExpanded, rootCmd.Flags().Lookup("expanded")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify(cmd.OutOrStdout())
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.Podtube,
	Short: "Listen to podcasts and videos from the terminal",
	Long: constant.Banner + "\n\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("  Listen to podcasts and videos from the terminal"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		checkDependencies()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		s := newSession()
		defer s.Close()

		handleErr(tui.Run(ctx, &tui.Options{
			Store:    s.store,
			Player:   s.engine,
			Catalog:  s.catalog,
			Sleep:    s.sleep,
			Errors:   s.errors,
			Continue: lo.Must(cmd.Flags().GetBool("continue")),
		}))
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err == nil {
		return
	}

	log.Error(err)
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
	os.Exit(1)
}
