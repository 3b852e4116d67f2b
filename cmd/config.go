package cmd

import (
	"fanfic-downloader/config"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if used != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.Save(config.Default(), path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	RootCmd.AddCommand(configCmd)
}
