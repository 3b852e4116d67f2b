package epub

import (
	"fanfic-downloader/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	meta := model.StoryMetadata{Title: "The Story", Author: "An Author", Summary: "<p>About.</p>"}
	chapters := []model.Chapter{
		{Name: "Chapter 1", Content: "<p>one</p>"},
		{Name: "Chapter 2", Content: "<p>two</p>"},
	}

	doc, filename := Assemble(meta, chapters, nil)

	assert.Equal(t, "The-Story-by-An-Author.epub", filename)
	assert.Equal(t, BookID("The Story", "An Author"), doc.ID)
	assert.Len(t, doc.ID, 64)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, []string{"nav", "summary", "chapter_0001", "chapter_0002"}, doc.Spine)

	require.Len(t, doc.Items, 3)
	assert.Equal(t, "summary.xhtml", doc.Items[0].FileName)
	assert.Equal(t, "<p>About.</p>", doc.Items[0].Content)
	assert.Equal(t, "Chapter 1.xhtml", doc.Items[1].FileName)
	assert.Equal(t, "Chapter 2", doc.Items[2].Title)

	require.Len(t, doc.TOC, 3)
	for i, entry := range doc.TOC {
		assert.Equal(t, doc.Items[i].ID, entry.ID)
		assert.Equal(t, doc.Items[i].FileName, entry.FileName)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	meta := model.StoryMetadata{Title: "T", Author: "A"}

	first, _ := Assemble(meta, nil, nil)
	second, _ := Assemble(meta, nil, nil)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.UUID, second.UUID)
	assert.NotEqual(t, first.ID, BookID("T", "B"))
}

func TestAssembleDisambiguatesChapterNames(t *testing.T) {
	chapters := []model.Chapter{
		{Name: "Interlude"},
		{Name: "Interlude"},
		{Name: "summary"},
		{Name: "Interlude"},
		{Name: ""},
	}

	doc, _ := Assemble(model.StoryMetadata{Title: "T", Author: "A"}, chapters, nil)

	names := make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		names = append(names, item.FileName)
	}
	assert.Equal(t, []string{
		"summary.xhtml",
		"Interlude.xhtml",
		"Interlude-2.xhtml",
		"summary-2.xhtml",
		"Interlude-3.xhtml",
		"chapter.xhtml",
	}, names)
}

func TestAssembleEmptySummary(t *testing.T) {
	doc, _ := Assemble(model.StoryMetadata{Title: "T", Author: "A"}, []model.Chapter{{Name: "1"}}, nil)

	assert.Equal(t, SummaryID, doc.Items[0].ID)
	assert.Empty(t, doc.Items[0].Content)
	assert.Len(t, doc.Spine, 3)
}

func TestAssembleCleansMarkup(t *testing.T) {
	meta := model.StoryMetadata{Title: "Tab\tand\x0cfeed", Author: "A\x00uthor", Summary: "<p>a&nbsp;b<br></p>"}
	chapters := []model.Chapter{
		{Name: "One\x1b", Content: "<p>x</p><script>a < b</script><!-- c -->"},
	}

	doc, _ := Assemble(meta, chapters, nil)

	assert.Equal(t, "Tab\tandfeed", doc.Title)
	assert.Equal(t, "Author", doc.Author)
	assert.Equal(t, "<p>a\u00a0b<br/></p>", doc.Items[0].Content)
	assert.Equal(t, "One", doc.Items[1].Title)
	assert.Equal(t, "One.xhtml", doc.Items[1].FileName)
	assert.Equal(t, "<p>x</p>", doc.Items[1].Content)
	assert.Equal(t, BookID(meta.Title, meta.Author), doc.ID)
}
