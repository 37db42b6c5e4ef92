// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/live"
	"github.com/dvrdeck-cli/dvrdeck/player"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(liveCmd)
	liveCmd.SetOut(os.Stdout)
}

// liveCmd tunes a live channel and streams it in the external player.
var liveCmd = &cobra.Command{
	Use:     "live <channel-number>",
	Short:   "Watch a live channel",
	Args:    cobra.ExactArgs(1),
	Example: "  dvrdeck live 5.1",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		client := serverClient()
		channels, err := client.LiveChannels(context.Background())
		handleErr(err)

		channel, found := lo.Find(channels, func(c api.Channel) bool {
			return c.GuideNumber == args[0]
		})
		if !found {
			handleErr(fmt.Errorf("no channel %q, run %q to list them", args[0], "dvrdeck channels"))
		}

		mpv := player.NewMPV()
		session := live.New(context.Background(), client, mpv, channel)

		failed := make(chan string, 1)
		session.SetOnChange(func(snap live.Snapshot) {
			switch snap.State {
			case live.Streaming:
				cmd.Printf(
					"%s %s %s %s\n",
					icon.Get(icon.Live),
					style.Bold(fmt.Sprintf("%s %s", snap.Channel.GuideNumber, snap.Channel.GuideName)),
					style.Faint("on tuner"),
					style.Faint(snap.TunerID),
				)
			case live.Failed:
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

		var streamErr error
		select {
		case <-quit:
		case <-mpv.Wait():
		case msg := <-failed:
			streamErr = errors.New(msg)
		}

		session.Close()
		_ = mpv.Close()

		handleErr(streamErr)
	},
}
