// Package ao3 fetches works from the Archive of Our Own.
package ao3

import (
	"context"
	"fanfic-downloader/downloader/common"
	"fanfic-downloader/model"
	"fanfic-downloader/template"
	"fanfic-downloader/utils"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	Host    = "archiveofourown.org"
	BaseURL = "https://" + Host

	// DefaultChapterDelay keeps the archive from rate limiting us.
	DefaultChapterDelay = 2 * time.Second

	notesSeparator = "\n<br/>\n"
)

var (
	workIDRe    = regexp.MustCompile(`/works/(\d+)`)
	chapterIDRe = regexp.MustCompile(`^\d+$`)
	publishedRe = regexp.MustCompile(`^\s*([\d,]+)\s*/`)
)

type Options struct {
	BaseURL       string
	Client        *utils.RestyClient
	ChapterClient *utils.RestyClient
	// ChapterDelay is waited before every chapter request.
	ChapterDelay time.Duration
	Progress     model.Progress
	Logger       *zap.Logger
}

type Archive struct {
	base          *url.URL
	client        *utils.RestyClient
	chapterClient *utils.RestyClient
	chapterDelay  time.Duration
	progress      model.Progress
	logger        *zap.Logger
}

func New(opts Options) (*Archive, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	a := &Archive{
		base:          base,
		client:        opts.Client,
		chapterClient: opts.ChapterClient,
		chapterDelay:  opts.ChapterDelay,
		progress:      opts.Progress,
		logger:        opts.Logger,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.client == nil {
		a.client = utils.NewRestyClient(utils.ClientOptions{Logger: a.logger})
	}
	if a.chapterClient == nil {
		a.chapterClient = a.client
	}
	return a, nil
}

func (a *Archive) Host() string {
	return Host
}

func (a *Archive) Cover() *model.Cover {
	return template.Cover("archiveofourown.png")
}

func (a *Archive) Fetch(ctx context.Context, storyURL *model.StoryURL) (*model.Story, error) {
	matches := workIDRe.FindStringSubmatch(storyURL.Path)
	if matches == nil {
		return nil, model.Errorf(model.ErrInvalidURL, "Invalid url. Needs a work path (/works/<id>)")
	}
	workID := matches[1]
	a.logger.Debug("Getting work", zap.String("work", workID))

	doc, err := common.GetStoryPage(ctx, a.client, withAdult(storyURL.Raw), a.base.String())
	if err != nil {
		return nil, err
	}

	story := &model.Story{}
	story.Title = utils.Text(doc.Find(".title.heading"))
	story.Author = utils.Text(doc.Find(".byline.heading"))
	story.Summary, err = utils.OuterHTML(doc.Find(".summary.module"))
	if err != nil {
		return nil, model.Errorf(model.ErrStructureMismatch, "failed to render summary: %v", err)
	}

	urls := make([]string, 0)
	doc.Find("#selected_id option").Each(func(i int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("value", ""))
		if chapterIDRe.MatchString(id) {
			urls = append(urls, a.chapterURL(fmt.Sprintf("/works/%s/chapters/%s", workID, id)))
		}
	})
	// a work with a single chapter has no chapter selector
	if len(urls) == 0 {
		urls = append(urls, a.chapterURL("/works/"+workID))
	}

	total, err := reportedTotal(doc)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Total chapters", zap.Int("found", len(urls)), zap.Int("reported", total))
	if err := common.CheckChapterCount(total, len(urls)); err != nil {
		return nil, err
	}

	story.Chapters, err = common.FetchChapters(ctx, urls, a.progress, a.logger,
		func(ctx context.Context, chapterURL string) (model.Chapter, error) {
			return a.getChapter(ctx, chapterURL, story.Title)
		})
	if err != nil {
		return nil, err
	}
	if err := common.CheckChapterCount(total, len(story.Chapters)); err != nil {
		return nil, err
	}
	return story, nil
}

// reportedTotal reads the published chapter count from the work stats,
// e.g. "3" from "3/?".
func reportedTotal(doc *goquery.Document) (int, error) {
	stat := utils.Text(doc.Find("dd.chapters"))
	matches := publishedRe.FindStringSubmatch(stat)
	if matches == nil {
		return 0, model.Errorf(model.ErrStructureMismatch, "chapter total not found: %q", stat)
	}
	total, err := strconv.Atoi(strings.ReplaceAll(matches[1], ",", ""))
	if err != nil {
		return 0, model.Errorf(model.ErrStructureMismatch, "chapter total not found: %q", stat)
	}
	return total, nil
}

func (a *Archive) getChapter(ctx context.Context, chapterURL, workTitle string) (model.Chapter, error) {
	if err := common.Pause(ctx, a.chapterDelay); err != nil {
		return model.Chapter{}, err
	}

	doc, err := common.GetChapterPage(ctx, a.chapterClient, chapterURL)
	if err != nil {
		return model.Chapter{}, err
	}

	name := utils.Text(doc.Find("#selected_id option[selected]"))
	if name == "" {
		name = utils.Text(doc.Find(".chapter .title"))
	}
	if name == "" {
		name = workTitle
	}

	body := doc.Find("div#chapters").First()
	if body.Length() == 0 {
		return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "chapter text not found on %s", chapterURL)
	}

	var content strings.Builder
	// some chapters have no notes
	if notes := doc.Find(".notes.module").First(); notes.Length() > 0 {
		html, err := utils.StripUnsafe(utils.StripComments(notes)).Html()
		if err != nil {
			return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "failed to render notes of %s: %v", chapterURL, err)
		}
		content.WriteString(html)
		content.WriteString(notesSeparator)
	}
	html, err := utils.StripUnsafe(utils.StripComments(body)).Html()
	if err != nil {
		return model.Chapter{}, model.Errorf(model.ErrStructureMismatch, "failed to render %s: %v", chapterURL, err)
	}
	content.WriteString(html)

	return model.Chapter{Name: name, Content: content.String()}, nil
}

func (a *Archive) chapterURL(p string) string {
	ref := *a.base
	ref.Path = strings.TrimSuffix(ref.Path, "/") + p
	return withAdult(ref.String())
}

// withAdult skips the archive's content warning interstitial.
func withAdult(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("view_adult", "true")
	u.RawQuery = q.Encode()
	return u.String()
}
