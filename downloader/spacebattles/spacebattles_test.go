package spacebattles

import (
	"context"
	"errors"
	"fanfic-downloader/browser"
	"fanfic-downloader/model"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const landingPage = `<html><body>
<h1 class="p-title-value">The Long Patrol </h1>
<a class="button--link menuTrigger button" href="/threads/the-long-patrol.1/threadmarks">Threadmarks</a>
<div class="threadmarkListingHeader-extraInfoChild message-body"><p>A story about a patrol.</p></div>
</body></html>`

// threadmarkPage lists the given chapter names, reporting total.
func threadmarkPage(total int, names ...string) string {
	var links strings.Builder
	for i, name := range names {
		post := 100 + i
		fmt.Fprintf(&links, `<a href="/threads/the-long-patrol.1/post-%d#post-%d">%s</a>`, post, post, name)
		fmt.Fprintf(&links, `<a href="/threads/the-long-patrol.1/post-%d#post-%d"><time>Jan %d</time></a>`, post, post, i+1)
	}
	return fmt.Sprintf(`<html><body>
<a class="username">Quill</a>
<dl><dd class="dataList-cell dataList-cell--min">%d</dd></dl>
<div class="block-body block-body--collapsible block-body--threadmarkBody is-active">%s</div>
</body></html>`, total, links.String())
}

func postPage(id int, label, body string) string {
	return fmt.Sprintf(`<html><body>
<article id="js-post-%d"><span class="threadmarkLabel">%s</span>
<div class="bbWrapper">%s<!-- signature --></div></article>
</body></html>`, id, label, body)
}

// staticRenderer loads pages with a plain GET, standing in for the browser.
type staticRenderer struct {
	selectors []string
	closed    bool
	err       error
}

func (r *staticRenderer) Render(ctx context.Context, pageURL, revealSelector string) (string, error) {
	r.selectors = append(r.selectors, revealSelector)
	if r.err != nil {
		return "", r.err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

func (r *staticRenderer) Close() error {
	r.closed = true
	return nil
}

func newTestSource(t *testing.T, threadmarks string) (*Spacebattles, *staticRenderer, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/threads/the-long-patrol.1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(landingPage))
	})
	mux.HandleFunc("/threads/the-long-patrol.1/threadmarks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(threadmarks))
	})
	mux.HandleFunc("/threads/the-long-patrol.1/post-100", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(postPage(100, "Departure", "<p>They set out.</p>")))
	})
	mux.HandleFunc("/threads/the-long-patrol.1/post-101", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(postPage(101, "Return", "<p>They came back.</p><script>if (a < b) {}</script>")))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	renderer := &staticRenderer{}
	source, err := New(Options{
		BaseURL: server.URL,
		Browser: func(context.Context) (browser.Renderer, error) { return renderer, nil },
	})
	require.NoError(t, err)
	return source, renderer, server
}

func storyURL(server *httptest.Server, path string) *model.StoryURL {
	return &model.StoryURL{Raw: server.URL + path, Scheme: "http", Host: Host, Path: path}
}

func TestFetch(t *testing.T) {
	source, renderer, server := newTestSource(t, threadmarkPage(2, "Departure", "Return"))

	story, err := source.Fetch(context.Background(), storyURL(server, "/threads/the-long-patrol.1/"))

	require.NoError(t, err)
	assert.Equal(t, "The Long Patrol", story.Title)
	assert.Equal(t, "Quill", story.Author)
	assert.Contains(t, story.Summary, "A story about a patrol.")

	require.Len(t, story.Chapters, 2)
	assert.Equal(t, "Departure", story.Chapters[0].Name)
	assert.Equal(t, `<div class="bbWrapper"><p>They set out.</p></div>`, story.Chapters[0].Content)
	assert.Equal(t, "Return", story.Chapters[1].Name)
	assert.NotContains(t, story.Chapters[1].Content, "signature")
	assert.NotContains(t, story.Chapters[1].Content, "<script>")

	assert.Equal(t, []string{threadmarkFetcher}, renderer.selectors)
	assert.True(t, renderer.closed, "browser session is closed")
}

func TestFetchDetectsMissingChapters(t *testing.T) {
	source, renderer, server := newTestSource(t, threadmarkPage(3, "Departure", "Return"))

	_, err := source.Fetch(context.Background(), storyURL(server, "/threads/the-long-patrol.1/"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStructureMismatch)
	assert.Equal(t, "missing chapters detected, found: 2 | total: 3", err.Error())
	assert.True(t, renderer.closed, "browser session is closed")
}

func TestFetchClosesBrowserWhenRenderFails(t *testing.T) {
	source, renderer, server := newTestSource(t, threadmarkPage(2, "Departure", "Return"))
	renderer.err = errors.New("page crashed")

	_, err := source.Fetch(context.Background(), storyURL(server, "/threads/the-long-patrol.1/"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnreachable)
	assert.Contains(t, err.Error(), "page crashed")
	assert.Equal(t, []string{threadmarkFetcher}, renderer.selectors)
	assert.True(t, renderer.closed, "browser session is closed")
}

func TestFetchUnknownStory(t *testing.T) {
	source, renderer, server := newTestSource(t, threadmarkPage(2, "Departure", "Return"))

	_, err := source.Fetch(context.Background(), storyURL(server, "/members/nobody"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnreachable)
	assert.Contains(t, err.Error(), "404")
	assert.Empty(t, renderer.selectors, "no browser work after a failed landing page")
}

func TestFetchWithoutThreadmarks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1 class="p-title-value">Not a story</h1></body></html>`))
	}))
	defer server.Close()
	source, err := New(Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), storyURL(server, "/threads/x.2/"))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStructureMismatch)
}
