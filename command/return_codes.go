package command

// Success indicates a successful command execution.
const Success int = 0

// The following error group is intended for issues within the command's execution.
const (
	// FlagParseError indicates that a command was unable to successfully parse the flags/arguments provided to it.
	FlagParseError int = iota + 16

	// ConfigError indicates that there was an error in the scrub configuration.
	ConfigError

	// RunError indicates that one or more files could not be read or written back during a run.
	RunError
)
