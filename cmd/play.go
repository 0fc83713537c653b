package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/color"
	"github.com/podtube-cli/podtube/history"
	"github.com/podtube-cli/podtube/icon"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/query"
	"github.com/podtube-cli/podtube/store"
	"github.com/podtube-cli/podtube/style"
	"github.com/podtube-cli/podtube/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var errNothingToContinue = errors.New("nothing to continue, the history is empty")

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("first", "f", false, "Play the first search result without asking")
	playCmd.Flags().IntP("sleep", "s", 0, "Stop playback after the given number of minutes")
	playCmd.Flags().Bool("video", false, "Show the video alongside the audio")
	playCmd.Flags().IntP("volume", "V", -1, "Volume from 0 to 100, overriding the configured one")
	playCmd.Flags().BoolP("continue", "c", false, "Resume from the saved position, or play the last item when no target is given")
}

var playCmd = &cobra.Command{
	Use:   "play [url|id|query]",
	Short: "Play an item without the interactive interface",
	Example: "  podtube play https://youtu.be/dQw4w9WgXcQ\n" +
		"  podtube play --first --sleep 30 lofi radio\n" +
		"  podtube play --continue",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			first     = lo.Must(cmd.Flags().GetBool("first"))
			sleep     = lo.Must(cmd.Flags().GetInt("sleep"))
			video     = lo.Must(cmd.Flags().GetBool("video"))
			volume    = lo.Must(cmd.Flags().GetInt("volume"))
			resume    = lo.Must(cmd.Flags().GetBool("continue"))
			target    = strings.TrimSpace(strings.Join(args, " "))
			ctx, stop = signal.NotifyContext(cmd.Context(), os.Interrupt)
		)
		defer stop()

		if target == "" && !resume {
			handleErr(cmd.Help())
			return
		}

		checkDependencies()

		s := newSession()
		defer s.Close()

		item, err := pick(ctx, s.catalog, target, first)
		handleErr(err)

		if volume >= 0 {
			s.store.SetVolume(float64(util.Clamp(volume, 0, 100)) / 100)
		}

		handleErr(playUntilDone(ctx, s, item, playOptions{
			sleep:  sleep,
			video:  video,
			resume: resume,
		}))
	},
}

type playOptions struct {
	sleep  int
	video  bool
	resume bool
}

// pick turns the target into an item: a link is resolved directly, anything else is searched.
// An empty target picks the most recently played item.
func pick(ctx context.Context, c *catalog.Client, target string, first bool) (*media.Item, error) {
	if target == "" {
		saved, ok := history.Last().Get()
		if !ok {
			return nil, errNothingToContinue
		}
		return saved.Item(), nil
	}

	if id, ok := sourceID(target); ok {
		streams, err := c.Streams(ctx, id)
		if err != nil {
			return nil, err
		}
		return catalog.ItemFromStreams(id, streams), nil
	}

	_ = query.Remember(target, 1)

	page, err := c.Search(ctx, target)
	if err != nil {
		return nil, err
	}

	items := lo.Filter(page.Items, func(item *media.Item, _ int) bool {
		return item.ID != ""
	})

	switch {
	case len(items) == 0:
		return nil, fmt.Errorf("no results for %q", target)
	case first || len(items) == 1:
		return items[0], nil
	}

	var index int
	prompt := &survey.Select{
		Message: "Play",
		Options: lo.Map(items, func(item *media.Item, i int) string {
			return fmt.Sprintf("%d. %s", i+1, item.Title)
		}),
		Description: func(_ string, i int) string {
			return items[i].Describe()
		},
		PageSize: 10,
	}
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, err
	}

	return items[index], nil
}

// playUntilDone plays item and blocks until it ends, the sleep timer fires or ctx is done.
func playUntilDone(ctx context.Context, s *session, item *media.Item, options playOptions) error {
	if err := s.engine.Open(ctx, item); err != nil {
		return err
	}

	if options.resume {
		if saved, ok := history.Find(item.ID).Get(); ok && saved.Resume() > 0 {
			s.store.Seek(saved.Resume())
		}
	}

	if options.video {
		s.store.SetVideoMode(true)
	}

	if options.sleep > 0 {
		if err := s.sleep.Arm(options.sleep); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := s.store.Subscribe(store.FieldPlaying, func(state store.State, _ store.Field) {
		if !state.IsPlaying {
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	if !s.store.IsPlaying() {
		once.Do(func() { close(done) })
	}

	fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Play)), style.Bold(item.Title))
	fmt.Println(style.Faint(item.Describe()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case err := <-s.errors:
			if e, ok := media.Classify(err); ok && !e.Surfaced() {
				continue
			}
			return err
		}
	}
}
