// Package main is the entry point for podtube.
package main

import (
	"github.com/podtube-cli/podtube/cmd"
	"github.com/podtube-cli/podtube/config"
	"github.com/podtube-cli/podtube/internal/cache"
	"github.com/podtube-cli/podtube/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()

	cmd.Execute()
}
