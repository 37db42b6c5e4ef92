// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dvrdeck-cli/dvrdeck/icon"
	"github.com/dvrdeck-cli/dvrdeck/journal"
	"github.com/dvrdeck-cli/dvrdeck/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntP("forget", "f", 0, "Drop the journal entry for a show id")
	journalCmd.SetOut(os.Stdout)
}

// journalCmd lists where each show was left off.
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show where each show was left off",
	Run: func(cmd *cobra.Command, args []string) {
		if forget := lo.Must(cmd.Flags().GetInt("forget")); forget != 0 {
			handleErr(journal.Remove(forget))
			cmd.Printf("%s Journal entry for show %s dropped\n", icon.Get(icon.Success), style.Bold(strconv.Itoa(forget)))
			return
		}

		byShow, err := journal.Get()
		handleErr(err)

		if len(byShow) == 0 {
			cmd.Println("The journal is empty. Entries appear after watching with journaling on.")
			return
		}

		entries := lo.Values(byShow)
		slices.SortFunc(entries, func(a, b *journal.Entry) int {
			return b.WatchedAt.Compare(a.WatchedAt)
		})

		for _, entry := range entries {
			cmd.Printf(
				"%s %s %s\n",
				style.Faint("#"+strconv.Itoa(entry.ShowID)),
				entry.String(),
				style.Faint(fmt.Sprintf("(%s)", entry.WatchedAt.Format("Jan 2, 3:04 PM"))),
			)
		}
	},
}
