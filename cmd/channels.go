// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvrdeck-cli/dvrdeck/color"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	channelsCmd.SetOut(os.Stdout)
}

// channelsCmd lists the tunable live channels.
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the tunable live channels",
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		channels, err := serverClient().LiveChannels(context.Background())
		handleErr(err)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(channels))
			return
		}

		if len(channels) == 0 {
			cmd.Println(style.Faint("No channels discovered."))
			return
		}

		for _, channel := range channels {
			affiliate := ""
			if channel.Affiliate != nil && *channel.Affiliate != "" {
				affiliate = style.Faint(fmt.Sprintf(" (%s)", *channel.Affiliate))
			}

			cmd.Printf(
				"%s %s%s\n",
				style.Fg(color.Yellow)(channel.GuideNumber),
				style.Bold(channel.GuideName),
				affiliate,
			)
		}
	},
}
