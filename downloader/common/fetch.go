// Package common holds the fetching steps shared by every site adapter.
package common

import (
	"bytes"
	"context"
	"fanfic-downloader/model"
	"fanfic-downloader/utils"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// GetStoryPage fetches the landing page of a story. Anything but 200 is
// reported as ErrSourceUnreachable naming base and the status code.
func GetStoryPage(ctx context.Context, client *utils.RestyClient, pageURL, base string) (*goquery.Document, error) {
	resp, err := client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, model.Errorf(model.ErrSourceUnreachable, "%s story unreachable: %v", base, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.Errorf(model.ErrSourceUnreachable, "%s story unreachable. Status code: %d", base, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, model.Errorf(model.ErrStructureMismatch, "failed to parse html of %s: %v", pageURL, err)
	}
	return doc, nil
}

// GetChapterPage fetches one chapter page. The client retries a 429 once;
// any other non-200 status fails with ErrChapterUnreachable.
func GetChapterPage(ctx context.Context, client *utils.RestyClient, chapterURL string) (*goquery.Document, error) {
	resp, err := client.R().SetContext(ctx).Get(chapterURL)
	if err != nil {
		return nil, model.Errorf(model.ErrChapterUnreachable, "%s unreachable: %v", chapterURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.Errorf(model.ErrChapterUnreachable, "%s unreachable. Code: %d", chapterURL, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, model.Errorf(model.ErrStructureMismatch, "failed to parse html of %s: %v", chapterURL, err)
	}
	return doc, nil
}

// CheckChapterCount compares the total a site reports with the number of
// chapters actually found.
func CheckChapterCount(reported, found int) error {
	if reported != found {
		return model.Errorf(model.ErrStructureMismatch, "missing chapters detected, found: %d | total: %d", found, reported)
	}
	return nil
}

// Pause waits d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchChapters runs fetch for every url in order and reports progress.
// The result keeps the order of urls.
func FetchChapters(ctx context.Context, urls []string, progress model.Progress, logger *zap.Logger,
	fetch func(ctx context.Context, chapterURL string) (model.Chapter, error)) ([]model.Chapter, error) {
	if progress == nil {
		progress = model.NopProgress{}
	}
	progress.SetTotal(len(urls))

	chapters := make([]model.Chapter, 0, len(urls))
	for _, chapterURL := range urls {
		logger.Debug("Parsing chapter", zap.String("url", chapterURL))
		chapter, err := fetch(ctx, chapterURL)
		if err != nil {
			return nil, err
		}
		logger.Debug("Finished", zap.String("chapter", chapter.Name))
		progress.Increment(chapter.Name)
		chapters = append(chapters, chapter)
	}
	return chapters, nil
}
