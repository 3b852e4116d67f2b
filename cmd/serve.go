package cmd

import (
	"fanfic-downloader/utils"
	"fanfic-downloader/web"

	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a web form that turns story urls into epubs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}
		logger := utils.NewLogger(true, cmd.ErrOrStderr())
		defer logger.Sync()
		return web.NewServer(cfg, logger).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "address to listen on")
	RootCmd.AddCommand(serveCmd)
}
