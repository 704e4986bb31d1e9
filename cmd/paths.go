package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/ludics/config"
	"github.com/grovetools/ludics/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the directories and files ludics reads and writes.
type PathsOutput struct {
	ConfigDir    string `json:"config_dir"`
	StateDir     string `json:"state_dir"`
	CacheDir     string `json:"cache_dir"`
	LogsDir      string `json:"logs_dir"`
	ConfigFile   string `json:"config_file"`
	HarnessDir   string `json:"harness_dir,omitempty"`
	SlotsFile    string `json:"slots_file,omitempty"`
	SessionsFile string `json:"sessions_file,omitempty"`
}

func NewPathsCmd() *cobra.Command {
	var ensure bool
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by ludics",
		Long: `Print the paths used by ludics as JSON.

- config_dir: pointer config (config.yaml)
- state_dir: runtime state
- logs_dir: per-component log files
- config_file: the config file ludics resolves
- harness_dir, slots_file, sessions_file: present when a config loads

With --ensure the config, state, cache and logs directories are created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ensure {
				if err := paths.EnsureDirs(); err != nil {
					return fmt.Errorf("failed to create ludics directories: %w", err)
				}
			}
			output := PathsOutput{
				ConfigDir:  paths.ConfigDir(),
				StateDir:   paths.StateDir(),
				CacheDir:   paths.CacheDir(),
				LogsDir:    paths.LogsDir(),
				ConfigFile: config.ResolveConfigPath(),
			}
			if cfg, err := config.LoadDefault(); err == nil {
				output.HarnessDir, _ = cfg.HarnessDir()
				output.SlotsFile, _ = cfg.SlotsFilePath()
				output.SessionsFile, _ = cfg.SessionsReportPath()
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}

	cmd.Flags().BoolVar(&ensure, "ensure", false, "Create missing directories first")
	return cmd
}
