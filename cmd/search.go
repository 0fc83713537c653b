package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/color"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/query"
	"github.com/podtube-cli/podtube/style"
	"github.com/podtube-cli/podtube/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// searchOutput is what search prints with --json.
type searchOutput struct {
	Query string        `json:"query,omitempty" jsonschema:"description=Search query, empty for listings"`
	Items []*media.Item `json:"items"`
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolP("json", "j", false, "Output as json")
	searchCmd.Flags().Bool("schema", false, "Print the json schema of the output and exit")
	searchCmd.Flags().IntP("limit", "l", 0, "Maximum number of results")
	lo.Must0(viper.BindPFlag(key.SearchLimit, searchCmd.Flags().Lookup("limit")))
	searchCmd.Flags().BoolP("featured", "f", false, "List featured items instead of searching")
	searchCmd.Flags().BoolP("newest", "n", false, "List the newest items instead of searching")
	searchCmd.MarkFlagsMutuallyExclusive("featured", "newest")

	searchCmd.SetOut(os.Stdout)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog",
	Example: "  podtube search go concurrency\n" +
		"  podtube search --featured --json",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(outputSchema(&searchOutput{})))
			return
		}

		var (
			featured = lo.Must(cmd.Flags().GetBool("featured"))
			newest   = lo.Must(cmd.Flags().GetBool("newest"))
			q        = strings.Join(args, " ")
		)

		if q == "" && !featured && !newest {
			handleErr(cmd.Help())
			return
		}

		page, err := listing(cmd.Context(), catalog.NewFromConfig(), q, featured, newest)
		handleErr(err)

		out := searchOutput{Query: q, Items: limit(page.Items, viper.GetInt(key.SearchLimit))}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(out))
			return
		}

		printItems(cmd, out.Items)
	},
}

func listing(ctx context.Context, c *catalog.Client, q string, featured, newest bool) (*catalog.Page, error) {
	switch {
	case featured:
		return c.Featured(ctx)
	case newest:
		return c.Newest(ctx)
	default:
		_ = query.Remember(q, 1)
		return c.Search(ctx, q)
	}
}

func limit(items []*media.Item, n int) []*media.Item {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func printItems(cmd *cobra.Command, items []*media.Item) {
	if len(items) == 0 {
		cmd.Println(style.Faint("Nothing found"))
		return
	}

	for i, item := range items {
		cmd.Printf("%s %s\n", style.Fg(color.Purple)(fmt.Sprintf("%2d.", i+1)), style.Bold(item.Title))
		cmd.Printf("    %s\n", style.Faint(item.Describe()))
		if item.ID != "" {
			cmd.Printf("    %s\n", style.Fg(color.Cyan)(media.WatchURL(item.ID)))
		}
	}

	cmd.Println()
	cmd.Println(style.Faint(util.Quantify(len(items), "result", "results")))
}

func outputSchema(v any) *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	return reflector.Reflect(v)
}
