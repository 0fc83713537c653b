// Package icon renders player symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/podtube-cli/podtube/key"
	"github.com/spf13/viper"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns every accepted icons.variant value.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

type Icon int

const (
	Play Icon = iota
	Pause
	Video
	Audio
	Muted
	Volume
	Sleep
	Progress
	Success
	Fail
	Search
	Verified
	History
)

type glyphs struct {
	emoji, nerd, plain string
}

var icons = map[Icon]glyphs{
	Play:     {emoji: "▶️", nerd: "", plain: ">"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||"},
	Video:    {emoji: "📺", nerd: "", plain: "[v]"},
	Audio:    {emoji: "🎧", nerd: "", plain: "[a]"},
	Muted:    {emoji: "🔇", nerd: "", plain: "x"},
	Volume:   {emoji: "🔊", nerd: "", plain: "vol"},
	Sleep:    {emoji: "💤", nerd: "", plain: "zz"},
	Progress: {emoji: "⏳", nerd: "", plain: "..."},
	Success:  {emoji: "🎉", nerd: "", plain: "ok"},
	Fail:     {emoji: "💀", nerd: "", plain: "!!"},
	Search:   {emoji: "🔍", nerd: "", plain: "?"},
	Verified: {emoji: "✅", nerd: "", plain: "*"},
	History:  {emoji: "🕘", nerd: "", plain: "~"},
}

func (g glyphs) get(variant string) string {
	switch variant {
	case emoji:
		return g.emoji
	case nerd:
		return g.nerd
	case plain:
		return g.plain
	default:
		return ""
	}
}

// Get renders i in the configured variant. Unknown variants render nothing.
func Get(i Icon) string {
	return icons[i].get(viper.GetString(key.IconsVariant))
}
