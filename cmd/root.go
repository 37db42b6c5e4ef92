// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/color"
	"github.com/dvrdeck-cli/dvrdeck/constant"
	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/key"
	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/dvrdeck-cli/dvrdeck/util"
	"github.com/dvrdeck-cli/dvrdeck/version"
	"github.com/dvrdeck-cli/dvrdeck/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-journal", "J", true, "Record watched episodes in the local journal")
	lo.Must0(viper.BindPFlag(key.JournalSaveOnWatch, rootCmd.PersistentFlags().Lookup("write-journal")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Clean up leftover temporary artifacts on startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the dvrdeck application.
var rootCmd = &cobra.Command{
	Use:   constant.Dvrdeck,
	Short: "A minimalist command-line client for personal DVR and tuner servers",
	Long: style.New().Italic(true).Foreground(color.HiRed).
		Render("    - A minimalist command-line client for personal DVR and tuner servers"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

// serverClient builds the API client for the configured server. Errors the
// engine decides are worth showing land on stderr.
func serverClient() *api.Client {
	base := viper.GetString(key.ServerURL)
	if base == "" {
		handleErr(errors.New(`no server configured, run "dvrdeck setup" first`))
	}

	return api.New(base, api.WithNotify(func(aerr *api.Error) {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), aerr.UserMessage())
	}))
}
