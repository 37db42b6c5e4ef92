package api

import (
	"fmt"
	"strings"
	"time"
)

// Wire models for the DVR server API. The server mixes snake_case (catalog
// endpoints) and PascalCase (guide and recording-rule endpoints, which proxy
// tuner-native structures); the JSON tags below are the wire contract and
// must not be normalized.

// HealthResponse is the reply to GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	Uptime        float64 `json:"uptime"`
	LastDiscovery *string `json:"lastDiscovery"`
	IsDiscovering bool    `json:"isDiscovering"`
}

// IsHealthy reports whether the server considers itself operational.
func (h HealthResponse) IsHealthy() bool {
	return strings.EqualFold(h.Status, "ok")
}

// ShowsResponse is the reply to GET /api/shows.
type ShowsResponse struct {
	Shows []Show `json:"shows"`
	Count int    `json:"count"`
}

// Show is a recorded series summary.
type Show struct {
	ID            int     `json:"id"`
	SeriesID      string  `json:"series_id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	ImageURL      *string `json:"image_url"`
	EpisodeCount  int     `json:"episode_count"`
	TotalDuration int     `json:"total_duration"`
	FirstRecorded *string `json:"first_recorded"`
	LastRecorded  *string `json:"last_recorded"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	DeviceName    string  `json:"device_name"`
	DeviceIP      string  `json:"device_ip"`
	DurationHours int     `json:"duration_hours"`
}

// EpisodesResponse is the reply to GET /api/shows/{id}/episodes.
// Episodes arrive pre-sorted newest-first.
type EpisodesResponse struct {
	Episodes []Episode `json:"episodes"`
	Count    int       `json:"count"`
	Show     ShowInfo  `json:"show"`
}

// ShowInfo is the show metadata attached to an episode listing.
type ShowInfo struct {
	ID       int    `json:"id"`
	SeriesID string `json:"series_id"`
	Title    string `json:"title"`
}

// Episode is one recording within a show.
type Episode struct {
	ID              int     `json:"id"`
	ProgramID       string  `json:"program_id"`
	Title           string  `json:"title"`
	EpisodeTitle    string  `json:"episode_title"`
	EpisodeNumber   string  `json:"episode_number"`
	SeasonNumber    int     `json:"season_number"`
	EpisodeNum      int     `json:"episode_num"`
	Synopsis        string  `json:"synopsis"`
	Category        string  `json:"category"`
	ChannelName     string  `json:"channel_name"`
	ChannelNumber   string  `json:"channel_number"`
	ChannelImageURL *string `json:"channel_image_url"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Duration        int     `json:"duration"`
	OriginalAirdate string  `json:"original_airdate"`
	RecordStartTime int     `json:"record_start_time"`
	RecordEndTime   int     `json:"record_end_time"`
	FirstAiring     int     `json:"first_airing"`
	Filename        string  `json:"filename"`
	FileSize        *int    `json:"file_size"`
	PlayURL         string  `json:"play_url"`
	CmdURL          string  `json:"cmd_url"`
	ResumePosition  *int    `json:"resume_position"`
	Watched         int     `json:"watched"`
	RecordSuccess   int     `json:"record_success"`
	ImageURL        *string `json:"image_url"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	SeriesID        string  `json:"series_id"`
	SeriesTitle     string  `json:"series_title"`
	DurationMinutes int     `json:"duration_minutes"`
	ResumeMinutes   int     `json:"resume_minutes"`
}

// Resume returns the saved resume position in seconds, zero if none.
func (e Episode) Resume() int {
	if e.ResumePosition == nil {
		return 0
	}
	return *e.ResumePosition
}

// IsWatched reports whether the episode has been marked watched.
func (e Episode) IsWatched() bool {
	return e.Watched > 0
}

// ProgressFraction returns the watched portion as a value in [0, 1].
func (e Episode) ProgressFraction() float64 {
	if e.ResumePosition == nil || e.Duration <= 0 {
		return 0
	}
	return float64(*e.ResumePosition) / float64(e.Duration)
}

// FormattedAirDate renders the original air date relative to today:
// "Today", "Yesterday", a weekday name within the last six days, and a
// medium date beyond that. Unparseable dates pass through verbatim.
func (e Episode) FormattedAirDate() string {
	return formatAirDate(e.OriginalAirdate, time.Now())
}

func formatAirDate(raw string, now time.Time) string {
	aired, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// The server sometimes omits the time component.
		aired, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return raw
		}
	}

	airedDay := aired.In(now.Location()).Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)

	switch days := int(today.Sub(airedDay).Hours() / 24); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return aired.Weekday().String()
	default:
		return aired.Format("Jan 2, 2006")
	}
}

// FormattedDuration renders the episode length as "1h 30m" or "45m".
func (e Episode) FormattedDuration() string {
	minutes := e.DurationMinutes
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// ChannelsResponse is the reply to GET /api/live/channels.
type ChannelsResponse struct {
	Channels  []Channel `json:"channels"`
	Count     int       `json:"count"`
	Timestamp string    `json:"timestamp"`
}

// Channel is one tunable live channel.
type Channel struct {
	GuideNumber string  `json:"guide_number"`
	GuideName   string  `json:"guide_name"`
	Affiliate   *string `json:"affiliate"`
	ImageURL    *string `json:"image_url"`
}

// CurrentProgramsResponse is the reply to GET /api/guide/now.
type CurrentProgramsResponse struct {
	Programs  []CurrentProgram `json:"programs"`
	Count     int              `json:"count"`
	Timestamp string           `json:"timestamp"`
}

// CurrentProgram is the program airing right now on one channel.
type CurrentProgram struct {
	GuideNumber   string  `json:"guide_number"`
	GuideName     string  `json:"guide_name"`
	Affiliate     *string `json:"affiliate"`
	SeriesID      string  `json:"series_id"`
	Title         string  `json:"title"`
	EpisodeNumber *string `json:"episode_number"`
	EpisodeTitle  *string `json:"episode_title"`
	StartTime     int64   `json:"start_time"`
	EndTime       int64   `json:"end_time"`
	ImageURL      *string `json:"image_url"`
}

// FormattedTime renders the program's air window, e.g. "8:00-8:30 PM".
func (p CurrentProgram) FormattedTime() string {
	start := time.Unix(p.StartTime, 0)
	end := time.Unix(p.EndTime, 0)
	return fmt.Sprintf("%s-%s %s", start.Format("3:04"), end.Format("3:04"), end.Format("PM"))
}

// WatchResponse is the reply to POST /api/live/watch.
type WatchResponse struct {
	Success       bool    `json:"success"`
	TunerID       string  `json:"tunerId"`
	PlaylistURL   string  `json:"playlistUrl"`
	ChannelNumber string  `json:"channelNumber"`
	Error         *string `json:"error"`
	Message       *string `json:"message"`
}

// LiveTVResponse is the reply to POST /api/live/heartbeat and /api/live/stop.
type LiveTVResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GuideResponse is the reply to GET /api/guide.
type GuideResponse struct {
	Channels []GuideChannel `json:"guide"`
}

// GuideChannel is one channel's upcoming program listing.
type GuideChannel struct {
	GuideNumber string         `json:"GuideNumber"`
	GuideName   string         `json:"GuideName"`
	Guide       []GuideProgram `json:"Guide"`
}

// GuideProgram is one scheduled program in the guide.
type GuideProgram struct {
	SeriesID      string   `json:"SeriesID"`
	Title         string   `json:"Title"`
	EpisodeNumber *string  `json:"EpisodeNumber"`
	EpisodeTitle  *string  `json:"EpisodeTitle"`
	StartTime     int64    `json:"StartTime"`
	EndTime       int64    `json:"EndTime"`
	Synopsis      *string  `json:"Synopsis"`
	ImageURL      *string  `json:"ImageURL"`
	Filter        []string `json:"Filter"`
}

// FormattedStartTime renders the scheduled start, e.g. "Mar 4, 8:00 PM".
func (p GuideProgram) FormattedStartTime() string {
	return time.Unix(p.StartTime, 0).Format("Jan 2, 3:04 PM")
}

// DurationMinutes returns the scheduled length in minutes.
func (p GuideProgram) DurationMinutes() int {
	return int(p.EndTime-p.StartTime) / 60
}

// RecordingRulesResponse is the reply to GET /api/rules.
type RecordingRulesResponse struct {
	Rules []RecordingRule `json:"rules"`
}

// RecordingRule is one series recording rule, keyed by the tuner's opaque rule identifier.
type RecordingRule struct {
	ID           string  `json:"RecordingRuleID"`
	SeriesID     string  `json:"SeriesID"`
	Title        *string `json:"Title"`
	ChannelOnly  *string `json:"ChannelOnly"`
	TeamOnly     *int    `json:"TeamOnly"`
	RecentOnly   *int    `json:"RecentOnly"`
	StartPadding *int    `json:"StartPadding"`
	EndPadding   *int    `json:"EndPadding"`
}

// CreateRecordingRuleRequest is the body of POST /api/rules.
type CreateRecordingRuleRequest struct {
	SeriesID     string  `json:"SeriesID"`
	ChannelOnly  *string `json:"ChannelOnly,omitempty"`
	TeamOnly     *int    `json:"TeamOnly,omitempty"`
	RecentOnly   *int    `json:"RecentOnly,omitempty"`
	StartPadding *int    `json:"StartPadding,omitempty"`
	EndPadding   *int    `json:"EndPadding,omitempty"`
}

// RecordingRuleResponse is the reply to POST /api/rules.
type RecordingRuleResponse struct {
	Success       bool           `json:"success"`
	RecordingRule *RecordingRule `json:"recordingRule"`
}

// progressUpdate is the body of PUT /api/episodes/{id}/progress.
// Watched travels as 0/1, matching the server's SQLite-backed schema.
type progressUpdate struct {
	Position int `json:"position"`
	Watched  int `json:"watched"`
}
