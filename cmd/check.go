// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/key"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/dvrdeck-cli/dvrdeck/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkCmd verifies the player dependency and the server connection.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the player dependency and server connectivity",
	Run: func(cmd *cobra.Command, args []string) {
		playerName := viper.GetString(key.Player)
		if _, err := exec.LookPath(playerName); err != nil {
			fmt.Printf("%s %s not found in PATH%s\n", icon.Get(icon.Fail), playerName, installHint(playerName))
		} else {
			fmt.Printf("%s %s found\n", icon.Get(icon.Success), playerName)
		}

		client := serverClient()

		erase := util.PrintErasable(fmt.Sprintf("%s Probing %s...", icon.Get(icon.Progress), client.BaseURL()))
		health, err := client.Health(context.Background())
		erase()

		if err != nil {
			fmt.Printf("%s server %s unreachable\n", icon.Get(icon.Fail), client.BaseURL())
			handleErr(err)
		}

		if !health.IsHealthy() {
			handleErr(fmt.Errorf("server responded but reports status %q", health.Status))
		}

		fmt.Printf(
			"%s server healthy %s\n",
			icon.Get(icon.Success),
			style.Faint(fmt.Sprintf("(uptime %s)", util.FormatClock(health.Uptime))),
		)
	},
}

// CheckDependencies verifies the configured player exists in PATH, exiting
// otherwise. Playback commands call it before spawning anything.
func CheckDependencies() {
	playerName := viper.GetString(key.Player)
	if _, err := exec.LookPath(playerName); err != nil {
		fmt.Printf("%s the required dependency '%s' was not found in your PATH%s\n",
			icon.Get(icon.Fail), playerName, installHint(playerName))
		os.Exit(1)
	}
}

func installHint(dep string) string {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install " + dep
	case "linux":
		installCmd = "sudo apt install " + dep
	case "windows":
		installCmd = "scoop install " + dep
	}

	if installCmd == "" {
		return ""
	}
	return "\n  to install it, try: " + style.Bold(installCmd)
}
