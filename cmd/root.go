package cmd

import (
	"fanfic-downloader/config"

	"github.com/spf13/cobra"
)

var configPath string

var RootCmd = &cobra.Command{
	Use:           "fanfic-downloader",
	Short:         "Turn fanfictions into ebooks (.epub) with their url",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
}

func loadConfig() (*config.Config, error) {
	cfg, _, err := config.Load(configPath)
	return cfg, err
}
