// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/color"
	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/key"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/dvrdeck-cli/dvrdeck/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().BoolP("skip-check", "s", false, "Save the server URL without probing its health endpoint")
}

// setupCmd interactively configures the DVR server connection.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure the DVR server connection",
	Long:  `Prompt for the DVR server base URL, validate it against the server's health endpoint, and persist it to the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		skipCheck := lo.Must(cmd.Flags().GetBool("skip-check"))

		input := survey.Input{
			Message: "DVR server base URL",
			Help:    "For example http://192.168.1.50:8080",
			Default: viper.GetString(key.ServerURL),
		}

		var raw string
		handleErr(survey.AskOne(&input, &raw, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			u, err := url.Parse(strings.TrimSpace(s))
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("enter a full URL including the scheme, e.g. http://192.168.1.50:8080")
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("unsupported scheme %q", u.Scheme)
			}
			return nil
		})))

		base := strings.TrimRight(strings.TrimSpace(raw), "/")

		if !skipCheck {
			erase := util.PrintErasable(fmt.Sprintf("%s Probing %s...", icon.Get(icon.Progress), base))
			health, err := api.New(base).Health(context.Background())
			erase()

			if err != nil {
				var apiErr *api.Error
				msg := err.Error()
				if errors.As(err, &apiErr) {
					msg = apiErr.UserMessage()
				}
				handleErr(fmt.Errorf("server check failed: %s (re-run with --skip-check to save anyway)", msg))
			}

			if !health.IsHealthy() {
				handleErr(fmt.Errorf("server responded but reports status %q", health.Status))
			}
		}

		viper.Set(key.ServerURL, base)
		viper.Set(key.ServerSetupDone, true)
		writeConfig()

		fmt.Printf(
			"%s server set to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(base),
		)
	},
}
