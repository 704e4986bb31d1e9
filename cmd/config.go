package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grovetools/ludics/cli"
	"github.com/grovetools/ludics/config"
	"github.com/grovetools/ludics/errors"
	"github.com/grovetools/ludics/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the `config` command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the ludics configuration",
		Long: `Shows which configuration file ludics resolves and what it contains.

The pointer config is $LUDICS_CONFIG or config.yaml in the ludics config
directory. When it names a state_repo whose harness directory carries its
own config.yaml or config.toml, that file is used instead.`,
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigValidateCmd(), newConfigSchemaCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(struct {
					Path   string         `json:"path"`
					Config *config.Config `json:"config"`
				}{cfg.Path(), cfg}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintf(out, "# Source: %s\n", cfg.Path())
			if harness, err := cfg.HarnessDir(); err == nil {
				fmt.Fprintf(out, "# Harness: %s\n", harness)
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a config file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg *config.Config
				err error
			)
			if len(args) == 1 {
				cfg, err = config.Load(args[0])
			} else {
				cfg, err = cli.LoadConfig(cmd)
			}
			if err != nil {
				if errors.Is(err, errors.ErrCodeConfigValidation) {
					return errors.ConfigValidation(configPathOf(args), validationProblems(err))
				}
				return err
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("%s is valid", cfg.Path()))
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to generate config schema")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func configPathOf(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return config.ResolveConfigPath()
}

// validationProblems splits the validator's multi-line message into one entry per problem.
func validationProblems(err error) []string {
	cause := err
	if le, ok := err.(*errors.LudicsError); ok && le.Cause != nil {
		cause = le.Cause
	}
	var problems []string
	for _, line := range strings.Split(cause.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "schema validation failed") {
			continue
		}
		problems = append(problems, line)
	}
	return problems
}
