package command

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/cli"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/scrubtool/scrub/hcl"
	"github.com/scrubtool/scrub/redact"
)

var _ cli.Command = &RunCommand{}

type RunCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// patterns collects every -x / -x-out value in command-line order
	patterns []string

	// HCL file location
	config string

	// dryRun reports occurrence counts without writing anything back
	dryRun bool
}

func (c *RunCommand) init() {
	const (
		xOutUsageText   = "Literal pattern to overwrite with a same-length run of 'x' bytes. May be provided multiple times; patterns are applied in the order given, each scanning the output of the one before it."
		xOutAliasText   = "Alias for -x"
		configUsageText = "Path to an HCL configuration file with redact blocks. Config patterns are applied before any -x patterns."
		dryRunUsageText = "Report the number of occurrences of each pattern per file without modifying any file."
	)

	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	c.flags = flag.NewFlagSet("run", flag.ContinueOnError)

	c.flags.Var(AppendFlag{Values: &c.patterns}, "x", xOutUsageText)
	c.flags.Var(AppendFlag{Values: &c.patterns}, "x-out", xOutAliasText)
	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.BoolVar(&c.dryRun, "dry-run", false, dryRunUsageText)

	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	c.flags.SetOutput(io.Discard)
}

// NewRunCommand produces a new *command pointer, initialized for use in a CLI application.
func NewRunCommand(ui cli.Ui) *RunCommand {
	c := &RunCommand{ui: ui}
	c.init()
	return c
}

// RunCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func RunCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewRunCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *RunCommand) Help() string {
	helpText := `Usage: scrub run [options] FILE ...

Overwrites every occurrence of the given literal patterns in each FILE with a
same-length run of 'x' bytes. Files are rewritten in place; file length never
changes. Missing files are reported and skipped.
`

	return Usage(helpText, c.flags)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *RunCommand) Synopsis() string {
	return "Redact literal patterns from files in place"
}

// Run executes the command.
func (c *RunCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		// Output the specific error to help the user understand what went wrong.
		c.ui.Warn(err.Error())
		// Since there was an issue in input, let's show our Help to try and assist the user.
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	files := c.flags.Args()
	if len(files) == 0 {
		c.ui.Warn("at least one FILE argument is required")
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("scrub")

	redactions, err := c.buildRedactions()
	if err != nil {
		l.Error("Failed to build redactions", "config", c.config, "error", err)
		return ConfigError
	}
	if len(redactions) == 0 {
		c.ui.Warn("no patterns provided; use -x or a -config file with redact blocks")
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	errs := c.redactFiles(l, files, redactions)

	c.ui.Output("Done.")

	if errs.ErrorOrNil() != nil {
		return RunError
	}
	return Success
}

func (c *RunCommand) parseFlags(args []string) error {
	return c.flags.Parse(args)
}

// buildRedactions compiles the full redaction list: config file blocks first,
// in file order, then -x flag patterns in command-line order.
func (c *RunCommand) buildRedactions() ([]*redact.Redact, error) {
	var redactions []*redact.Redact

	if c.config != "" {
		cfg, err := hcl.Parse(c.config)
		if err != nil {
			return nil, err
		}
		redactions, err = hcl.MapRedacts(cfg.Redactions)
		if err != nil {
			return nil, err
		}
	}

	for _, pattern := range c.patterns {
		red, err := redact.New(pattern, "")
		if err != nil {
			return nil, err
		}
		redactions = append(redactions, red)
	}

	return redactions, nil
}

// redactFiles runs the whole batch strictly in order. A missing file is reported and skipped; a read or write
// failure is reported and collected, and the loop moves on to the next file either way.
func (c *RunCommand) redactFiles(l hclog.Logger, files []string, redactions []*redact.Redact) *multierror.Error {
	var errs *multierror.Error

	for _, f := range files {
		path, err := homedir.Expand(f)
		if err != nil {
			c.ui.Error(fmt.Sprintf("Cannot expand path %q: %s", f, err))
			errs = multierror.Append(errs, err)
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			c.ui.Output(fmt.Sprintf("No such file %s", f))
			continue
		}

		if c.dryRun {
			if err := c.countFile(path, f, redactions); err != nil {
				errs = multierror.Append(errs, err)
			}
			continue
		}

		for _, red := range redactions {
			c.ui.Output(fmt.Sprintf("Cleaning %q", red.Pattern()))
		}
		if err := redact.File(path, redactions); err != nil {
			c.ui.Error(fmt.Sprintf("Failed to redact %s: %s", f, err))
			errs = multierror.Append(errs, err)
			continue
		}
		l.Debug("redacted file", "file", f, "patterns", len(redactions))
	}

	return errs
}

// countFile reports how many occurrences each pattern would redact, applying each redaction in memory so the
// counts reflect the same sequential scan a real run performs.
func (c *RunCommand) countFile(path, display string, redactions []*redact.Redact) error {
	bts, err := os.ReadFile(path)
	if err != nil {
		c.ui.Error(fmt.Sprintf("Failed to read %s: %s", display, err))
		return err
	}
	for _, red := range redactions {
		c.ui.Output(fmt.Sprintf("%s: %d occurrence(s) of %q", display, red.Count(bts), red.Pattern()))
		bts = redact.Bytes(bts, []*redact.Redact{red})
	}
	return nil
}

// AppendFlag is a repeatable flag.Value; every occurrence appends its raw
// value, so patterns may contain commas or whitespace.
type AppendFlag struct {
	Values *[]string
}

func (s AppendFlag) String() string {
	if s.Values == nil {
		return ""
	}
	return strings.Join(*s.Values, ", ")
}

func (s AppendFlag) Set(v string) error {
	*s.Values = append(*s.Values, v)
	return nil
}
