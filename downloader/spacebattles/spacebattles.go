// Package spacebattles fetches threadmarked stories from the SpaceBattles
// forums.
package spacebattles

import (
	"context"
	"fanfic-downloader/browser"
	"fanfic-downloader/downloader/common"
	"fanfic-downloader/model"
	"fanfic-downloader/template"
	"fanfic-downloader/utils"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	Host    = "forums.spacebattles.com"
	BaseURL = "https://" + Host

	threadmarksButton = ".button--link.menuTrigger.button"
	// Stories with more than 100 threadmarks hide the rest behind this
	// control. Shorter stories do not have it.
	threadmarkFetcher = `div[data-xf-click='threadmark-fetcher']`
	threadmarkBody    = ".block-body.block-body--collapsible.block-body--threadmarkBody.is-active"
)

type Options struct {
	BaseURL       string
	Client        *utils.RestyClient
	ChapterClient *utils.RestyClient
	Browser       browser.Launcher
	Progress      model.Progress
	Logger        *zap.Logger
}

type Spacebattles struct {
	base          *url.URL
	client        *utils.RestyClient
	chapterClient *utils.RestyClient
	launch        browser.Launcher
	progress      model.Progress
	logger        *zap.Logger
}

func New(opts Options) (*Spacebattles, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	s := &Spacebattles{
		base:          base,
		client:        opts.Client,
		chapterClient: opts.ChapterClient,
		launch:        opts.Browser,
		progress:      opts.Progress,
		logger:        opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.client == nil {
		s.client = utils.NewRestyClient(utils.ClientOptions{Logger: s.logger})
	}
	if s.chapterClient == nil {
		s.chapterClient = s.client
	}
	return s, nil
}

func (s *Spacebattles) Host() string {
	return Host
}

func (s *Spacebattles) Cover() *model.Cover {
	return template.Cover("spacebattles.png")
}

func (s *Spacebattles) Fetch(ctx context.Context, storyURL *model.StoryURL) (*model.Story, error) {
	s.logger.Debug("Getting story", zap.String("url", storyURL.Raw))

	doc, err := common.GetStoryPage(ctx, s.client, storyURL.Raw, s.base.String())
	if err != nil {
		return nil, err
	}

	href, ok := doc.Find(threadmarksButton).First().Attr("href")
	if !ok {
		return nil, model.Errorf(model.ErrStructureMismatch, "threadmarks link not found on %s", storyURL.Raw)
	}

	story := &model.Story{}
	story.Title = utils.Text(doc.Find(".p-title-value"))
	story.Summary, err = utils.OuterHTML(doc.Find(".threadmarkListingHeader-extraInfoChild.message-body"))
	if err != nil {
		return nil, model.Errorf(model.ErrStructureMismatch, "failed to render summary: %v", err)
	}

	threadmarks, err := s.getThreadmarks(ctx, s.resolve(href))
	if err != nil {
		return nil, err
	}

	story.Author = utils.Text(threadmarks.Find(".username"))
	total, err := reportedTotal(threadmarks)
	if err != nil {
		return nil, err
	}

	urls := s.chapterURLs(threadmarks)
	s.logger.Debug("Total chapters", zap.Int("found", len(urls)), zap.Int("reported", total))
	if err := common.CheckChapterCount(total, len(urls)); err != nil {
		return nil, err
	}

	story.Chapters, err = common.FetchChapters(ctx, urls, s.progress, s.logger, s.getChapter)
	if err != nil {
		return nil, err
	}
	if err := common.CheckChapterCount(total, len(story.Chapters)); err != nil {
		return nil, err
	}
	return story, nil
}

// getThreadmarks renders the threadmark index in a browser session that is
// closed before returning.
func (s *Spacebattles) getThreadmarks(ctx context.Context, threadmarksURL string) (*goquery.Document, error) {
	if s.launch == nil {
		return nil, model.Errorf(model.ErrSourceUnreachable, "no browser configured to load %s", threadmarksURL)
	}
	session, err := s.launch(ctx)
	if err != nil {
		return nil, model.Errorf(model.ErrSourceUnreachable, "failed to open browser: %v", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn("failed to close browser", zap.Error(err))
		}
	}()

	html, err := session.Render(ctx, threadmarksURL, threadmarkFetcher)
	if err != nil {
		return nil, model.Errorf(model.ErrSourceUnreachable, "%s threadmarks unreachable: %v", s.base, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.Errorf(model.ErrStructureMismatch, "failed to parse threadmarks: %v", err)
	}
	return doc, nil
}

// chapterURLs lists the threadmark links in index order. Links wrapping
// other elements, such as the publish date, are skipped.
func (s *Spacebattles) chapterURLs(doc *goquery.Document) []string {
	urls := make([]string, 0)
	doc.Find(threadmarkBody).First().Find("a").Each(func(i int, a *goquery.Selection) {
		if a.Children().Length() > 0 || a.Contents().Length() == 0 {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		urls = append(urls, s.resolve(href))
	})
	return urls
}

func reportedTotal(doc *goquery.Document) (int, error) {
	cell := utils.Text(doc.Find(".dataList-cell.dataList-cell--min"))
	total, err := strconv.Atoi(strings.ReplaceAll(cell, ",", ""))
	if err != nil {
		return 0, model.Errorf(model.ErrStructureMismatch, "threadmark total not found: %q", cell)
	}
	return total, nil
}

func (s *Spacebattles) getChapter(ctx context.Context, chapterURL string) (model.Chapter, error) {
	u, err := url.Parse(chapterURL)
	if err != nil || !strings.HasPrefix(u.Fragment, "post") {
		return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "no post anchor in %s", chapterURL)
	}
	postID := u.Fragment

	doc, err := common.GetChapterPage(ctx, s.chapterClient, chapterURL)
	if err != nil {
		return model.Chapter{}, err
	}

	article := doc.Find(`article[id="js-` + postID + `"]`).First()
	if article.Length() == 0 {
		return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "post %s not found on %s", postID, chapterURL)
	}

	body := article.Find("div.bbWrapper").First()
	if body.Length() == 0 {
		return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "post %s has no body", postID)
	}
	content, err := utils.OuterHTML(utils.StripUnsafe(utils.StripComments(body)))
	if err != nil {
		return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "failed to render post %s: %v", postID, err)
	}

	return model.Chapter{
		Name:    utils.Text(article.Find("span.threadmarkLabel")),
		Content: content,
	}, nil
}

func (s *Spacebattles) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return s.base.String() + href
	}
	return s.base.ResolveReference(ref).String()
}
