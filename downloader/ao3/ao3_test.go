package ao3

import (
	"context"
	"fanfic-downloader/model"
	"fanfic-downloader/utils"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chapterSelect renders the chapter selector with option selected marked,
// or none when selected is 0.
func chapterSelect(selected int) string {
	mark := func(i int) string {
		if i == selected {
			return ` selected="selected"`
		}
		return ""
	}
	return fmt.Sprintf(`<select id="selected_id">
<option value="501"%s>1. Arrival</option>
<option value="502"%s>2. Departure</option>
</select>`, mark(1), mark(2))
}

var workPage = `<html><body>
<h2 class="title heading">
  Quiet Harbor
</h2>
<h3 class="byline heading"><a rel="author">Mira</a></h3>
<dl class="stats"><dd class="chapters">2/2</dd></dl>
<div class="summary module"><h3>Summary:</h3><blockquote><p>Boats.</p></blockquote></div>
` + chapterSelect(0) + `
</body></html>`

var firstChapter = `<html><body>` + chapterSelect(1) + `
<div class="notes module"><h3>Notes:</h3><p>Thanks for reading!</p><!-- edit --></div>
<div id="chapters"><p>They arrived.</p></div>
</body></html>`

var secondChapter = `<html><body>` + chapterSelect(2) + `
<div id="chapters"><p>They left.</p></div>
</body></html>`

const oneShot = `<html><body>
<h2 class="title heading">Single</h2>
<h3 class="byline heading">Mira</h3>
<dl class="stats"><dd class="chapters">1/1</dd></dl>
<div id="chapters"><div class="chapter"><p>Only once.</p></div></div>
</body></html>`

type fixture struct {
	server       *httptest.Server
	rateLimited  atomic.Int32
	secondCalls  atomic.Int32
	adultQueries atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("view_adult") == "true" {
				f.adultQueries.Add(1)
			}
			w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/works/42", page(workPage))
	mux.HandleFunc("/works/42/chapters/501", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(firstChapter))
	})
	mux.HandleFunc("/works/42/chapters/502", func(w http.ResponseWriter, r *http.Request) {
		f.secondCalls.Add(1)
		if f.rateLimited.Add(-1) >= 0 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(secondChapter))
	})
	mux.HandleFunc("/works/7", page(oneShot))
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) source(t *testing.T) *Archive {
	t.Helper()
	archive, err := New(Options{
		BaseURL:       f.server.URL,
		ChapterClient: utils.NewRestyClient(utils.ClientOptions{RateLimitBackoff: 10 * time.Millisecond}),
	})
	require.NoError(t, err)
	return archive
}

func (f *fixture) url(path string) *model.StoryURL {
	return &model.StoryURL{Raw: f.server.URL + path, Scheme: "http", Host: Host, Path: path}
}

func TestFetch(t *testing.T) {
	f := newFixture(t)

	story, err := f.source(t).Fetch(context.Background(), f.url("/works/42"))

	require.NoError(t, err)
	assert.Equal(t, "Quiet Harbor", story.Title)
	assert.Equal(t, "Mira", story.Author)
	assert.Contains(t, story.Summary, `<div class="summary module">`)
	assert.Contains(t, story.Summary, "Boats.")

	require.Len(t, story.Chapters, 2)
	assert.Equal(t, "1. Arrival", story.Chapters[0].Name)
	assert.Equal(t, "2. Departure", story.Chapters[1].Name)
	assert.Positive(t, f.adultQueries.Load())
}

func TestFetchChapterNotes(t *testing.T) {
	f := newFixture(t)

	story, err := f.source(t).Fetch(context.Background(), f.url("/works/42"))
	require.NoError(t, err)
	require.Len(t, story.Chapters, 2)

	first := story.Chapters[0].Content
	assert.Equal(t, "<h3>Notes:</h3><p>Thanks for reading!</p>"+notesSeparator+"<p>They arrived.</p>", first)

	second := story.Chapters[1].Content
	assert.Equal(t, "<p>They left.</p>", second)
	assert.NotContains(t, second, notesSeparator)
}

func TestFetchRetriesRateLimitedChapterOnce(t *testing.T) {
	f := newFixture(t)
	f.rateLimited.Store(1)

	story, err := f.source(t).Fetch(context.Background(), f.url("/works/42"))

	require.NoError(t, err)
	assert.Len(t, story.Chapters, 2)
	assert.Equal(t, int32(2), f.secondCalls.Load())
}

func TestFetchFailsWhenRateLimitPersists(t *testing.T) {
	f := newFixture(t)
	f.rateLimited.Store(5)

	_, err := f.source(t).Fetch(context.Background(), f.url("/works/42"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrChapterUnreachable)
	assert.Contains(t, err.Error(), "Code: 429")
	assert.Equal(t, int32(2), f.secondCalls.Load())
}

func TestFetchOneShot(t *testing.T) {
	f := newFixture(t)

	story, err := f.source(t).Fetch(context.Background(), f.url("/works/7"))

	require.NoError(t, err)
	require.Len(t, story.Chapters, 1)
	assert.Equal(t, "Single", story.Chapters[0].Name, "falls back to the work title")
	assert.Equal(t, `<div class="chapter"><p>Only once.</p></div>`, story.Chapters[0].Content)
	assert.Empty(t, story.Summary)
}

func TestFetchMissingWork(t *testing.T) {
	f := newFixture(t)

	_, err := f.source(t).Fetch(context.Background(), f.url("/works/999"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnreachable)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchNeedsWorkPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.source(t).Fetch(context.Background(), f.url("/users/mira"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidURL)
}

func TestWithAdult(t *testing.T) {
	assert.Equal(t, "https://archiveofourown.org/works/1?view_adult=true", withAdult("https://archiveofourown.org/works/1"))
	assert.Equal(t, "https://archiveofourown.org/works/1?view_adult=true", withAdult("https://archiveofourown.org/works/1?view_adult=false"))
}
