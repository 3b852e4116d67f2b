package downloader

import (
	"context"
	"fanfic-downloader/config"
	"fanfic-downloader/epub"
	"fanfic-downloader/model"
	"fanfic-downloader/utils"
	"io"

	"go.uber.org/zap"
)

type Options struct {
	Verbose     bool
	Destination string
	Config      *config.Config
	Progress    model.Progress
	// LogOutput receives log lines, stderr when nil.
	LogOutput io.Writer
	// Registry replaces the default set of sites.
	Registry *Registry
}

// Run downloads the story at rawURL and writes it as an EPUB into the
// destination directory. It returns the path of the written file.
func Run(ctx context.Context, rawURL string, opts Options) (string, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := utils.NewLogger(opts.Verbose, opts.LogOutput)
	defer logger.Sync()

	registry := opts.Registry
	if registry == nil {
		var err error
		registry, err = DefaultRegistry(cfg, logger, opts.Progress)
		if err != nil {
			return "", err
		}
	}

	storyURL, err := ValidateURL(rawURL, registry.Hosts())
	if err != nil {
		return "", err
	}

	destination := opts.Destination
	if destination == "" {
		destination = cfg.Destination
	}
	if err := epub.ValidateDestination(destination); err != nil {
		return "", err
	}

	source, ok := registry.Lookup(storyURL.Host)
	if !ok {
		return "", model.Errorf(model.ErrInvalidURL, "Invalid url. No source for %s", storyURL.Host)
	}

	logger.Debug("Starting metadata collection", zap.String("url", storyURL.Raw))
	story, err := source.Fetch(ctx, storyURL)
	if err != nil {
		return "", err
	}
	logger.Debug("Story collected",
		zap.String("title", story.Title),
		zap.String("author", story.Author),
		zap.Int("chapters", len(story.Chapters)))

	doc, filename := epub.Assemble(story.StoryMetadata, story.Chapters, source.Cover())
	return epub.Write(ctx, doc, filename, destination, logger)
}
