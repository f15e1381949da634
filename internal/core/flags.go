package core

// EnvPrefix is the prefix applied to all environment variable flag sources.
const EnvPrefix = "JOBFLOW_"

// Flags holds the global CLI flag values shared by every subcommand.
type Flags struct {
	LogLevel       string
	ConfigFilePath string
}
