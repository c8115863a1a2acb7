package main

import (
	"os"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
