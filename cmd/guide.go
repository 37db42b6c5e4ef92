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
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// guideProgramLimit bounds how many upcoming programs print per channel.
const guideProgramLimit = 4

func init() {
	rootCmd.AddCommand(guideCmd)
	guideCmd.Flags().BoolP("refresh", "r", false, "Bypass the cached guide and fetch a fresh copy")
	guideCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	guideCmd.SetOut(os.Stdout)
}

// guideCmd displays the electronic program guide.
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Display the electronic program guide",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			refresh = lo.Must(cmd.Flags().GetBool("refresh"))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
		)

		channels, err := serverClient().Guide(context.Background(), refresh)
		handleErr(err)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(channels))
			return
		}

		width := 80
		if w, _, err := util.TerminalSize(); err == nil && w > 20 {
			width = w
		}

		for i, channel := range channels {
			cmd.Println(style.Title(fmt.Sprintf("%s %s", channel.GuideNumber, channel.GuideName)))

			programs := channel.Guide
			if len(programs) > guideProgramLimit {
				programs = programs[:guideProgramLimit]
			}

			for _, program := range programs {
				cmd.Printf(
					"  %s %s %s\n",
					style.Fg(color.Yellow)(program.FormattedStartTime()),
					style.Bold(program.Title),
					style.Faint(fmt.Sprintf("%dm", program.DurationMinutes())),
				)

				if program.Synopsis != nil && *program.Synopsis != "" {
					cmd.Println(style.Faint(indent.String(wordwrap.String(*program.Synopsis, width-4), 4)))
				}
			}

			if i < len(channels)-1 {
				cmd.Println()
			}
		}
	},
}

func init() {
	guideCmd.AddCommand(guideNowCmd)
	guideNowCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	guideNowCmd.SetOut(os.Stdout)
}

// guideNowCmd displays what is airing right now on each channel.
var guideNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display what is airing right now on each channel",
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		programs, err := serverClient().CurrentPrograms(context.Background())
		handleErr(err)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(programs))
			return
		}

		for _, program := range programs {
			cmd.Printf(
				"%s %s %s %s\n",
				style.Fg(color.Yellow)(program.GuideNumber),
				style.Bold(program.GuideName),
				program.Title,
				style.Faint(program.FormattedTime()),
			)
		}
	},
}
