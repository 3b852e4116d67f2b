package downloader

import (
	"fanfic-downloader/browser"
	"fanfic-downloader/config"
	"fanfic-downloader/downloader/ao3"
	"fanfic-downloader/downloader/spacebattles"
	"fanfic-downloader/model"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// DefaultRegistry wires every supported site with clients built from cfg.
func DefaultRegistry(cfg *config.Config, logger *zap.Logger, progress model.Progress) (*Registry, error) {
	client := newClient(cfg, logger, false)
	chapterClient := newClient(cfg, logger, true)

	sb, err := spacebattles.New(spacebattles.Options{
		Client:        client,
		ChapterClient: chapterClient,
		Browser: browser.NewLauncher(browser.Config{
			Engine:     cfg.Browser.Engine,
			RemoteURL:  cfg.Browser.RemoteURL,
			LogDest:    cfg.Browser.LogDest,
			Timeout:    cfg.Browser.Timeout,
			RevealWait: cfg.Browser.RevealWait,
		}, logger.Named("browser")),
		Progress: progress,
		Logger:   logger.Named(spacebattles.Host),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s source: %w", spacebattles.Host, err)
	}

	archive, err := ao3.New(ao3.Options{
		Client:        client,
		ChapterClient: chapterClient,
		ChapterDelay:  cfg.ChapterDelay,
		Progress:      progress,
		Logger:        logger.Named(ao3.Host),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s source: %w", ao3.Host, err)
	}

	return NewRegistry(sb, archive), nil
}

// SupportedHosts lists the hosts DefaultRegistry serves, sorted.
func SupportedHosts() []string {
	hosts := []string{ao3.Host, spacebattles.Host}
	sort.Strings(hosts)
	return hosts
}
