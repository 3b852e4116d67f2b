package cmd

import (
	"bytes"
	"context"
	"fanfic-downloader/epub"
	"fanfic-downloader/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInspect(t *testing.T) {
	doc, filename := epub.Assemble(
		model.StoryMetadata{Title: "The Story", Author: "An Author"},
		[]model.Chapter{{Name: "One", Content: "<p>1</p>"}, {Name: "Two", Content: "<p>2</p>"}},
		nil,
	)
	path, err := epub.Write(context.Background(), doc, filename, t.TempDir(), nil)
	require.NoError(t, err)

	out, err := execute(t, "inspect", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Title:      The Story")
	assert.Contains(t, out, "Author:     An Author")
	assert.Contains(t, out, "Spine:      nav, summary, chapter_0001, chapter_0002")
	assert.Contains(t, out, "Contents (3):")
	assert.Contains(t, out, "Two  [Two.xhtml]")
}

func TestDownloadNeedsURL(t *testing.T) {
	_, err := execute(t, "download")

	require.Error(t, err)
	assert.Equal(t, "url is required", err.Error())
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "version:")
}
