// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Server Connection - these keys describe the DVR server this client talks to.
const (
	ServerURL          = "server.url"
	ServerSetupDone    = "server.setup_done"
	ServerGuideRefresh = "server.guide_cache_minutes"
)

// Media Playback - these keys maintain the state and configuration for the external video player.
const (
	Player = "player.default"
)

// Watch Journal - these keys configure the local record of recently watched episodes.
const (
	JournalSaveOnWatch = "journal.save_on_watch"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern general command-line behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
