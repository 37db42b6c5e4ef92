// Package journal keeps a local record of the last watched episode per
// show, so a viewing can be picked up where it left off without browsing.
// The server remains the source of truth for per-episode progress; the
// journal only remembers which episode that was.
package journal

import (
	"strconv"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/filesystem"
	"github.com/dvrdeck-cli/dvrdeck/where"
	"github.com/metafates/gache"
)

// cacher is the disk-backed registry of journal entries, keyed by show ID.
var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.Journal(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns all journal entries.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Last returns the journal entry for one show, if any.
func Last(showID int) (*Entry, bool, error) {
	entries, err := Get()
	if err != nil {
		return nil, false, err
	}
	entry, ok := entries[strconv.Itoa(showID)]
	return entry, ok, nil
}

// Save records the episode as the show's most recent viewing.
func Save(entry Entry) error {
	entries, err := Get()
	if err != nil {
		return err
	}

	entry.WatchedAt = time.Now()
	entries[strconv.Itoa(entry.ShowID)] = &entry

	return cacher.Set(entries)
}

// Remove deletes one show's journal entry.
func Remove(showID int) error {
	entries, err := Get()
	if err != nil {
		return err
	}

	delete(entries, strconv.Itoa(showID))
	return cacher.Set(entries)
}
