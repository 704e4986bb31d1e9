package cli

import (
	"os"

	"github.com/grovetools/ludics/config"
	"github.com/grovetools/ludics/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds common options for ludics commands
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard ludics flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to ludics.yml config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the ludics logger adjusted for the command's flags.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("ludics")

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}

	return entry
}

// ApplyVerbose raises the level of every logger created after it runs.
// The root command calls it before any subcommand builds its loggers.
func ApplyVerbose(cmd *cobra.Command) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		_ = os.Setenv("LUDICS_LOG_LEVEL", "debug")
	}
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// InitConfig resolves the configuration file for a run. An explicit path
// from --config is exported as LUDICS_CONFIG so every later LoadDefault
// call sees it.
func InitConfig(configFile string) (string, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return "", err
		}
		if err := os.Setenv("LUDICS_CONFIG", configFile); err != nil {
			return "", err
		}
		return configFile, nil
	}

	return config.ResolveConfigPath(), nil
}

// LoadConfig loads the configuration selected by the command's --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if _, err := InitConfig(opts.ConfigFile); err != nil {
		return nil, err
	}
	return config.LoadDefault()
}
