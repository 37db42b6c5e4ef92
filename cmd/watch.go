// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/journal"
	"github.com/dvrdeck-cli/dvrdeck/key"
	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/dvrdeck-cli/dvrdeck/playback"
	"github.com/dvrdeck-cli/dvrdeck/player"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntP("episode", "e", 0, "Play a specific episode by its id")
	watchCmd.Flags().BoolP("continue", "c", false, "Resume from the last episode recorded in the journal")
	watchCmd.MarkFlagsMutuallyExclusive("episode", "continue")
	watchCmd.SetOut(os.Stdout)
}

// watchCmd plays back a show's recordings in the external player.
var watchCmd = &cobra.Command{
	Use:     "watch <show-id>",
	Short:   "Play a show's recordings",
	Args:    cobra.ExactArgs(1),
	Example: "  dvrdeck watch 3 --continue",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		var (
			episodeID   = lo.Must(cmd.Flags().GetInt("episode"))
			fromJournal = lo.Must(cmd.Flags().GetBool("continue"))
		)

		showID, err := strconv.Atoi(args[0])
		if err != nil {
			handleErr(fmt.Errorf("invalid show id %q", args[0]))
		}

		client := serverClient()
		resp, err := client.Episodes(context.Background(), showID)
		handleErr(err)

		if len(resp.Episodes) == 0 {
			handleErr(fmt.Errorf("show %q has no recordings", resp.Show.Title))
		}

		index, err := pickEpisode(resp, episodeID, fromJournal)
		handleErr(err)

		mpv := player.NewMPV()
		session := playback.New(context.Background(), client, mpv, resp.Episodes, index)

		// Loading fires once per episode, so it doubles as the
		// episode-changed signal for the journal and the status line.
		failed := make(chan string, 1)
		lastState := playback.Idle
		session.SetOnChange(func(snap playback.Snapshot) {
			if snap.State == lastState {
				return
			}
			lastState = snap.State

			switch snap.State {
			case playback.Loading:
				cmd.Printf(
					"%s %s %s\n",
					icon.Get(icon.Progress),
					style.Bold(episodeLabel(snap.Episode)),
					style.Faint(fmt.Sprintf("(%d of %d)", snap.Index+1, snap.Count)),
				)
				recordJournal(resp.Show, snap)
			case playback.Failed:
				select {
				case failed <- snap.Message:
				default:
				}
			}
		})

		session.Start()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(quit)

		var playbackErr error
		select {
		case <-quit:
		case <-mpv.Wait():
		case msg := <-failed:
			playbackErr = errors.New(msg)
		}

		session.Close()
		_ = mpv.Close()

		handleErr(playbackErr)
	},
}

// pickEpisode resolves the starting index in the newest-first episode list.
func pickEpisode(resp api.EpisodesResponse, episodeID int, fromJournal bool) (int, error) {
	if episodeID != 0 {
		_, index, found := lo.FindIndexOf(resp.Episodes, func(e api.Episode) bool {
			return e.ID == episodeID
		})
		if !found {
			return 0, fmt.Errorf("show %q has no episode with id %d", resp.Show.Title, episodeID)
		}
		return index, nil
	}

	if fromJournal {
		entry, found, err := journal.Last(resp.Show.ID)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("no journal entry for %q yet", resp.Show.Title)
		}

		if _, index, ok := lo.FindIndexOf(resp.Episodes, func(e api.Episode) bool {
			return e.ID == entry.EpisodeID
		}); ok {
			return index, nil
		}
		// The recording was deleted since the last viewing.
		return 0, nil
	}

	return 0, nil
}

func recordJournal(show api.ShowInfo, snap playback.Snapshot) {
	if !viper.GetBool(key.JournalSaveOnWatch) {
		return
	}

	err := journal.Save(journal.Entry{
		ShowID:       show.ID,
		ShowTitle:    show.Title,
		EpisodeID:    snap.Episode.ID,
		EpisodeTitle: episodeLabel(snap.Episode),
		Index:        snap.Index,
		Count:        snap.Count,
	})
	if err != nil {
		log.Warnf("journal: saving entry failed: %v", err)
	}
}
