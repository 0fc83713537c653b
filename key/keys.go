// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Catalog API - these keys select and tune the remote catalog instance.
const (
	CatalogInstance  = "catalog.instance"
	CatalogTimeout   = "catalog.timeout"
	CatalogRateLimit = "catalog.rate_limit"
	CatalogCacheTTL  = "catalog.cache_ttl"
)

// Networking - these keys shape the shared HTTP client.
const (
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Media Playback - these keys configure the playback elements and engine.
const (
	PlayerMPV              = "player.mpv"
	PlayerVideoQuality     = "player.video_quality"
	PlayerInitialVolume    = "player.initial_volume"
	PlayerThumbnailQuality = "player.thumbnail_quality"
	PlayerSeekStep         = "player.seek_step"
	PlayerVolumeStep       = "player.volume_step"
)

// Sleep Timer - these keys configure the presets offered by the player.
const (
	SleepPresets = "sleep.presets"
)

// History Tracking - these keys configure the persistence of resume positions.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Search Interaction - these keys define the UI/UX parameters for search discovery.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
	SearchLimit                = "search.limit"
)

// Terminal User Interface (TUI) - these keys define the primary interactive environment.
const (
	TUIStartExpanded = "tui.start_expanded"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
