package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/color"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/resolver"
	"github.com/podtube-cli/podtube/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// streamsOutput is what streams prints with --json.
type streamsOutput struct {
	ID    string               `json:"id"`
	Title string               `json:"title"`
	Audio []*media.AudioStream `json:"audio"`
	Video []*media.VideoStream `json:"video"`

	// Selected are the renditions the player would use.
	SelectedAudio *media.AudioStream `json:"selected_audio,omitempty"`
	SelectedVideo *media.VideoStream `json:"selected_video,omitempty"`
}

// sourceID accepts a watch link or a bare source identifier.
func sourceID(target string) (string, bool) {
	if id, err := media.ExtractSourceID(target); err == nil {
		return id, true
	}
	if id, err := media.ExtractSourceID(media.WatchURL(target)); err == nil {
		return id, true
	}
	return "", false
}

func init() {
	rootCmd.AddCommand(streamsCmd)

	streamsCmd.Flags().BoolP("json", "j", false, "Output as json")
	streamsCmd.Flags().Bool("schema", false, "Print the json schema of the output and exit")
	streamsCmd.SetOut(os.Stdout)
}

var streamsCmd = &cobra.Command{
	Use:   "streams <url|id>",
	Short: "List the streams available for an item",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(outputSchema(&streamsOutput{})))
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		id, ok := sourceID(args[0])
		if !ok {
			handleErr(fmt.Errorf("%q is not a watch link or source id", args[0]))
		}

		streams, err := catalog.NewFromConfig().Streams(cmd.Context(), id)
		handleErr(err)

		out := streamsOutput{
			ID:            id,
			Title:         streams.Title,
			Audio:         streams.Audio,
			Video:         streams.Video,
			SelectedAudio: resolver.SelectAudio(streams.Audio),
			SelectedVideo: resolver.SelectVideo(streams.Video, viper.GetString(key.PlayerVideoQuality)),
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(out))
			return
		}

		cmd.Println(style.Bold(out.Title))
		printStreams(cmd, "Audio", lo.Map(out.Audio, func(s *media.AudioStream, _ int) fmt.Stringer { return s }), out.SelectedAudio)
		printStreams(cmd, "Video", lo.Map(out.Video, func(s *media.VideoStream, _ int) fmt.Stringer { return s }), out.SelectedVideo)
	},
}

func printStreams[T comparable](cmd *cobra.Command, header string, streams []fmt.Stringer, selected T) {
	cmd.Println()
	cmd.Println(style.New().Bold(true).Foreground(color.HiPurple).Render(header))

	if len(streams) == 0 {
		cmd.Println(style.Faint("  none"))
		return
	}

	for _, s := range streams {
		line := "  " + s.String()
		if v, ok := s.(T); ok && v == selected {
			line = style.Fg(color.Green)(line + " *")
		}
		cmd.Println(line)
	}
}
