package cmd

import (
	"fanfic-downloader/downloader"
	"fanfic-downloader/ui"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a story as an epub",
	Long: `Download a story as an epub.

Supported sites: forums.spacebattles.com (needs a Chrome or Chromium
install, or a remote browser via WEB_DRIVER=remote and BROWSER_URL) and
archiveofourown.org.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

type downloadArgs struct {
	url         string
	verbose     bool
	destination string
	noProgress  bool
}

var dArgs downloadArgs

func init() {
	downloadCmd.Flags().StringVarP(&dArgs.url, "url", "u", "", "the full url [http(s)://<NETLOC>/<PATH>] to the story's page")
	downloadCmd.Flags().BoolVarP(&dArgs.verbose, "verbose", "v", false, "print extra information")
	downloadCmd.Flags().StringVarP(&dArgs.destination, "destination", "d", "", "the directory to write the ebook to")
	downloadCmd.Flags().BoolVar(&dArgs.noProgress, "no-progress", false, "do not draw a progress bar")
	RootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	url := dArgs.url
	if len(args) > 0 {
		url = args[0]
	}
	if url == "" {
		return fmt.Errorf("url is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := downloader.Options{
		Verbose:     dArgs.verbose,
		Destination: dArgs.destination,
		Config:      cfg,
	}
	if !dArgs.verbose && !dArgs.noProgress {
		progress := ui.NewChapterProgress(os.Stderr)
		defer progress.Close()
		opts.Progress = progress
	}

	path, err := downloader.Run(cmd.Context(), url, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
