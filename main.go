// Package main is the entry point for the dvrdeck application.
package main

import (
	"github.com/dvrdeck-cli/dvrdeck/cmd"
	"github.com/dvrdeck-cli/dvrdeck/config"
	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
