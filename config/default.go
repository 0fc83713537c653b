// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/podtube-cli/podtube/color"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is a configuration key with its default value.
// The type of Value is the type the key is read and written as.
type Field struct {
	Key         string
	Value       any
	Description string
}

// fields is every supported key, in the order they are documented.
var fields = []Field{
	{key.CatalogInstance, constant.DefaultCatalogInstance, "Base URL of the Piped-compatible catalog API instance"},
	{key.CatalogTimeout, int(constant.DefaultStreamTimeout.Seconds()), "Seconds to wait for a stream resolution before giving up"},
	{key.CatalogRateLimit, 5, "Maximum catalog requests per second"},
	{key.CatalogCacheTTL, 10, "Minutes to keep featured and newest listings cached on disk"},

	{key.NetworkTLSFingerprint, false, "Use a Chrome TLS fingerprint for catalog requests.\nUseful for instances behind aggressive bot protection"},

	{key.PlayerMPV, "mpv", "mpv executable used for the audio and video elements"},
	{key.PlayerVideoQuality, constant.DefaultVideoQuality, "Quality label requested when video mode is enabled"},
	{key.PlayerInitialVolume, 100, "Volume to start with. From 0 to 100"},
	{key.PlayerThumbnailQuality, "high", "Thumbnail quality.\nAvailable options are: default, medium, high, standard, maxres"},
	{key.PlayerSeekStep, 10, "Seconds to skip when seeking with the arrow keys"},
	{key.PlayerVolumeStep, 5, "Volume percentage to change per key press"},

	{key.SleepPresets, []int{15, 30, 45, 60}, "Sleep timer presets in minutes, cycled in the player"},
	{key.HistorySaveOnPlay, true, "Record playback positions while playing to resume later"},

	{key.SearchShowQuerySuggestions, true, "Show query suggestions when searching"},
	{key.SearchLimit, 20, "Limit of search results to show"},

	{key.TUIStartExpanded, false, "Open the player expanded instead of as a mini player"},
	{key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd (nerd-font required), plain"},

	{key.LogsWrite, false, "Write logs"},
	{key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace"},
	{key.LogsJson, false, "Use json format for logs"},

	{key.CliColored, true, "Enable colored CLI output"},
	{key.CliVersionCheck, true, "Enable automatic version check"},
}

// Default maps every key to its field.
var Default = lo.KeyBy(fields, func(f Field) string { return f.Key })

// EnvExposed lists the keys that can be set through the environment.
var EnvExposed = lo.Map(fields, func(f Field, _ int) string { return f.Key })

func init() {
	if len(Default) != len(fields) {
		panic("duplicate config key")
	}
}

// Pretty renders the field for config info.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable that overrides this field.
func (f *Field) Env() string {
	return strings.ToUpper(constant.Podtube + "_" + EnvKeyReplacer.Replace(f.Key))
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Env         string `json:"env"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
		Env:         f.Env(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

func highlight(v any) string {
	switch value := v.(type) {
	case bool:
		if value {
			return style.Fg(color.Green)(strconv.FormatBool(value))
		}
		return style.Fg(color.Red)(strconv.FormatBool(value))
	case string:
		return style.Fg(color.Yellow)(strconv.Quote(value))
	default:
		return style.Fg(color.Cyan)(fmt.Sprint(value))
	}
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"hl":       highlight,
	"typename": (*Field).typeName,
}).Parse(`{{ faint .Description }}
{{ blue "Key" }}      {{ purple .Key }}
{{ blue "Env" }}      {{ .Env }}
{{ blue "Value" }}    {{ hl (value .Key) }}
{{ blue "Default" }}  {{ hl .Value }}
{{ blue "Type" }}     {{ typename . }}`))
