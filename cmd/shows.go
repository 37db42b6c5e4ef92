// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvrdeck-cli/dvrdeck/color"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/dvrdeck-cli/dvrdeck/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showsCmd)
	showsCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	showsCmd.SetOut(os.Stdout)
}

// showsCmd lists the recorded shows on the server.
var showsCmd = &cobra.Command{
	Use:     "shows",
	Short:   "List the recorded shows on the server",
	Aliases: []string{"library"},
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		shows, err := serverClient().Shows(context.Background())
		handleErr(err)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(shows))
			return
		}

		if len(shows) == 0 {
			cmd.Println(style.Faint("No recordings yet."))
			return
		}

		for _, show := range shows {
			cmd.Printf(
				"%s %s %s\n",
				style.Fg(color.Yellow)(fmt.Sprintf("#%d", show.ID)),
				style.Bold(show.Title),
				style.Faint(fmt.Sprintf(
					"%s, %dh recorded",
					util.Quantify(show.EpisodeCount, "episode", "episodes"),
					show.DurationHours,
				)),
			)
		}
	},
}
