// Package cmd implements the command-line interface for dvrdeck.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.SetOut(os.Stdout)
}

// schemaCmd generates JSON schemas for the structured --json outputs, so
// scripts consuming them can validate without a live server.
var schemaCmd = &cobra.Command{
	Use:       "schema [shows|episodes|channels|guide|rules]",
	Short:     "Generate the JSON schema for a structured output",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"shows", "episodes", "channels", "guide", "rules"},
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return t.Name()
		}

		target := "episodes"
		if len(args) == 1 {
			target = strings.ToLower(args[0])
		}

		var schema *jsonschema.Schema
		switch target {
		case "shows":
			schema = reflector.Reflect([]api.Show{})
		case "episodes":
			schema = reflector.Reflect(&api.EpisodesResponse{})
		case "channels":
			schema = reflector.Reflect([]api.Channel{})
		case "guide":
			schema = reflector.Reflect([]api.GuideChannel{})
		case "rules":
			schema = reflector.Reflect([]api.RecordingRule{})
		default:
			handleErr(fmt.Errorf("unknown schema target %q", target))
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(schema))
	},
}
