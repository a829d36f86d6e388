package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/scrubtool/scrub/command"
	"github.com/scrubtool/scrub/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := cli.NewCLI("scrub", version.GetVersion().SemanticVersion())
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"run":     command.RunCommandFactory(ui),
		"version": command.VersionCommandFactory(ui),
	}

	rc, err := c.Run()
	if err != nil {
		hclog.L().Error("Problem executing command", "error", err)
	}
	return rc
}
