// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/color"
	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(episodesCmd)
	episodesCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	episodesCmd.SetOut(os.Stdout)
}

// episodesCmd lists one show's recorded episodes, newest first.
var episodesCmd = &cobra.Command{
	Use:   "episodes [show-id]",
	Short: "List a show's recorded episodes, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showID, err := strconv.Atoi(args[0])
		if err != nil {
			handleErr(fmt.Errorf("invalid show id %q", args[0]))
		}

		asJson := lo.Must(cmd.Flags().GetBool("json"))

		resp, err := serverClient().Episodes(context.Background(), showID)
		handleErr(err)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(resp))
			return
		}

		cmd.Println(style.Title(resp.Show.Title))
		cmd.Println()

		for _, episode := range resp.Episodes {
			cmd.Printf(
				"%s %s %s\n",
				style.Fg(color.Yellow)(fmt.Sprintf("#%d", episode.ID)),
				style.Bold(episodeLabel(episode)),
				style.Faint(fmt.Sprintf("%s, %s%s", episode.FormattedAirDate(), episode.FormattedDuration(), progressTag(episode))),
			)
		}
	},
}

func episodeLabel(episode api.Episode) string {
	if episode.EpisodeTitle != "" {
		return episode.EpisodeTitle
	}
	if episode.EpisodeNumber != "" {
		return episode.EpisodeNumber
	}
	return episode.Title
}

// progressTag renders the watch state suffix for an episode line.
func progressTag(episode api.Episode) string {
	switch {
	case episode.IsWatched():
		return ", " + icon.Get(icon.Watched) + " watched"
	case episode.Resume() > 0:
		return fmt.Sprintf(", %.0f%% watched", episode.ProgressFraction()*100)
	default:
		return ""
	}
}
