// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.SetOut(os.Stdout)
}

// rulesCmd groups recording rule management.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage series recording rules",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(cmd.Help())
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	rulesListCmd.SetOut(os.Stdout)
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recording rules",
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		rules, err := serverClient().RecordingRules(context.Background())
		handleErr(err)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(rules))
			return
		}

		if len(rules) == 0 {
			cmd.Println("No recording rules.")
			return
		}

		for _, rule := range rules {
			title := rule.SeriesID
			if rule.Title != nil && *rule.Title != "" {
				title = *rule.Title
			}

			cmd.Printf(
				"%s %s %s\n",
				style.Faint("#"+rule.ID),
				style.Bold(title),
				style.Faint(fmt.Sprintf("(series %s)", rule.SeriesID)),
			)
		}
	},
}

func init() {
	rulesCmd.AddCommand(rulesAddCmd)
	rulesAddCmd.SetOut(os.Stdout)
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <series-id>",
	Short: "Record every airing of a series",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := serverClient().CreateRecordingRule(context.Background(), args[0])
		handleErr(err)

		if !resp.Success || resp.RecordingRule == nil {
			handleErr(fmt.Errorf("the server rejected the rule for series %q", args[0]))
		}

		cmd.Printf("%s Recording rule %s created\n", icon.Get(icon.Success), style.Bold("#"+resp.RecordingRule.ID))
	},
}

func init() {
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesRemoveCmd.SetOut(os.Stdout)
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <rule-id>",
	Short: "Delete a recording rule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(serverClient().DeleteRecordingRule(context.Background(), args[0]))
		cmd.Printf("%s Recording rule %s removed\n", icon.Get(icon.Success), style.Bold("#"+args[0]))
	},
}
