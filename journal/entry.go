package journal

import (
	"fmt"
	"time"
)

// Entry is one show's most recent viewing.
type Entry struct {
	ShowID       int       `json:"show_id"`
	ShowTitle    string    `json:"show_title"`
	EpisodeID    int       `json:"episode_id"`
	EpisodeTitle string    `json:"episode_title"`
	Index        int       `json:"index"`
	Count        int       `json:"count"`
	WatchedAt    time.Time `json:"watched_at"`
}

func (e *Entry) String() string {
	if e.EpisodeTitle != "" {
		return fmt.Sprintf("%s : %s", e.ShowTitle, e.EpisodeTitle)
	}
	return fmt.Sprintf("%s : %d / %d", e.ShowTitle, e.Index+1, e.Count)
}
