package common

import (
	"context"
	"errors"
	"fanfic-downloader/model"
	"fanfic-downloader/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingProgress struct {
	total int
	names []string
}

func (p *recordingProgress) SetTotal(total int)    { p.total = total }
func (p *recordingProgress) Increment(name string) { p.names = append(p.names, name) }

func TestGetStoryPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body><h1 class="title">Hello</h1></body></html>`))
	}))
	defer server.Close()
	client := utils.NewRestyClient(utils.ClientOptions{})

	doc, err := GetStoryPage(context.Background(), client, server.URL+"/story", "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Find(".title").Text())

	_, err = GetStoryPage(context.Background(), client, server.URL+"/missing", "https://example.org")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnreachable)
	assert.Equal(t, "https://example.org story unreachable. Status code: 404", err.Error())
}

func TestGetChapterPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()
	client := utils.NewRestyClient(utils.ClientOptions{})

	_, err := GetChapterPage(context.Background(), client, server.URL+"/c/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrChapterUnreachable)
	assert.Contains(t, err.Error(), "403")
}

func TestCheckChapterCount(t *testing.T) {
	assert.NoError(t, CheckChapterCount(3, 3))

	err := CheckChapterCount(5, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStructureMismatch)
	assert.Equal(t, "missing chapters detected, found: 4 | total: 5", err.Error())
}

func TestPause(t *testing.T) {
	assert.NoError(t, Pause(context.Background(), 0))
	assert.NoError(t, Pause(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pause(ctx, time.Hour), context.Canceled)
}

func TestFetchChapters(t *testing.T) {
	progress := &recordingProgress{}
	urls := []string{"u1", "u2", "u3"}

	chapters, err := FetchChapters(context.Background(), urls, progress, zap.NewNop(),
		func(_ context.Context, chapterURL string) (model.Chapter, error) {
			return model.Chapter{Name: "name " + chapterURL, Content: chapterURL}, nil
		})

	require.NoError(t, err)
	require.Len(t, chapters, 3)
	for i, chapter := range chapters {
		assert.Equal(t, urls[i], chapter.Content, "order is preserved")
	}
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, []string{"name u1", "name u2", "name u3"}, progress.names)
}

func TestFetchChaptersStopsAtFirstError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	_, err := FetchChapters(context.Background(), []string{"a", "b", "c"}, nil, zap.NewNop(),
		func(_ context.Context, chapterURL string) (model.Chapter, error) {
			calls++
			if chapterURL == "b" {
				return model.Chapter{}, boom
			}
			return model.Chapter{Name: chapterURL}, nil
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
